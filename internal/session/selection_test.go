package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubTransport answers characteristic discovery from expectations. Only the
// discovery methods are expected to be called.
type stubTransport struct{ mock.Mock }

func (s *stubTransport) RadioState() RadioState { return s.Called().Get(0).(RadioState) }
func (s *stubTransport) StartScan() error       { return s.Called().Error(0) }
func (s *stubTransport) StopScan() error        { return s.Called().Error(0) }
func (s *stubTransport) ConnectedPeripherals() ([]Peripheral, error) {
	ret := s.Called()
	return ret.Get(0).([]Peripheral), ret.Error(1)
}
func (s *stubTransport) Connect(p Peripheral) error       { return s.Called(p).Error(0) }
func (s *stubTransport) CancelConnect(p Peripheral) error { return s.Called(p).Error(0) }
func (s *stubTransport) DiscoverServices(p Peripheral) ([]Service, error) {
	ret := s.Called(p)
	return ret.Get(0).([]Service), ret.Error(1)
}
func (s *stubTransport) DiscoverCharacteristics(p Peripheral, svc Service) ([]Characteristic, error) {
	ret := s.Called(p, svc)
	var chars []Characteristic
	if ret.Get(0) != nil {
		chars = ret.Get(0).([]Characteristic)
	}
	return chars, ret.Error(1)
}
func (s *stubTransport) Subscribe(p Peripheral, c Characteristic) error {
	return s.Called(p, c).Error(0)
}
func (s *stubTransport) Write(p Peripheral, c Characteristic, data []byte, mode WriteMode) error {
	return s.Called(p, c, data, mode).Error(0)
}
func (s *stubTransport) IsConnected(p Peripheral) bool { return s.Called(p).Bool(0) }
func (s *stubTransport) Events() <-chan TransportEvent {
	return s.Called().Get(0).(<-chan TransportEvent)
}

const (
	vendorA = "0000AB01-1111-2222-3333-444455556666"
	vendorB = "0000AB02-1111-2222-3333-444455556666"
)

func char(uuid string, props Property) Characteristic {
	return Characteristic{UUID: uuid, Properties: props}
}

func TestParseUUID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"FD90", "0000fd90-0000-1000-8000-00805f9b34fb"},
		{"fd90", "0000fd90-0000-1000-8000-00805f9b34fb"},
		{"0x180A", "0000180a-0000-1000-8000-00805f9b34fb"},
		{"1234ABCD", "1234abcd-0000-1000-8000-00805f9b34fb"},
		{"AEAC4A03-DFF5-498F-843A-34487CF133EB", "aeac4a03-dff5-498f-843a-34487cf133eb"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseUUID(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}

	_, err := ParseUUID("not-a-uuid")
	assert.Error(t, err)
}

func TestShortForm(t *testing.T) {
	u, err := ParseUUID("FD90")
	require.NoError(t, err)
	short, ok := ShortForm(u)
	assert.True(t, ok)
	assert.Equal(t, "FD90", short)

	u, err = ParseUUID(vendorA)
	require.NoError(t, err)
	_, ok = ShortForm(u)
	assert.False(t, ok)
}

func TestUUIDEqual(t *testing.T) {
	assert.True(t, uuidEqual("FD90", "0000FD90-0000-1000-8000-00805F9B34FB"))
	assert.True(t, uuidEqual("180a", "180A"))
	assert.False(t, uuidEqual("FD90", "FD91"))
}

func TestScoreCandidate(t *testing.T) {
	tests := []struct {
		name string
		pair channelPair
		want int
	}{
		{
			name: "short form starting FD, acked write, notify",
			pair: channelPair{
				service: Service{UUID: "FDAB"},
				write:   char("2A00", PropWrite),
				notify:  char("2A01", PropNotify),
			},
			want: scoreBase + scoreFDPrefix + scoreAckedWrite + scoreNotify,
		},
		{
			name: "full uuid, unacked write, indicate",
			pair: channelPair{
				service: Service{UUID: vendorA},
				write:   char("2A00", PropWriteWithoutResponse),
				notify:  char("2A01", PropIndicate),
			},
			want: scoreBase + scoreFullUUID,
		},
		{
			name: "other short form",
			pair: channelPair{
				service: Service{UUID: "ABCD"},
				write:   char("2A00", PropWriteWithoutResponse),
				notify:  char("2A01", PropNotify),
			},
			want: scoreBase + scoreNotify,
		},
		{
			name: "known FD90",
			pair: channelPair{
				service: Service{UUID: "FD90"},
				write:   fd90Write,
				notify:  fd90Notify,
			},
			want: scoreBase + scoreFDPrefix + scoreKnownService + scoreAckedWrite + scoreNotify,
		},
		{
			name: "known full uuid",
			pair: channelPair{
				service: Service{UUID: KnownServices[0].Service},
				write:   char(KnownServices[0].Write, PropWriteWithoutResponse),
				notify:  char(KnownServices[0].Notify, PropIndicate),
			},
			want: scoreBase + scoreFullUUID + scoreKnownService,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, scoreCandidate(tt.pair))
		})
	}
}

func TestKnownServiceAlwaysWins(t *testing.T) {
	// the best possible unknown candidate against the worst possible known one
	best := scoreBase + scoreFDPrefix + scoreFullUUID + scoreAckedWrite + scoreNotify
	worst := scoreBase + scoreKnownService
	assert.Greater(t, worst, best)
}

func TestSelectChannels(t *testing.T) {
	p := Peripheral{ID: "p"}
	known := Service{UUID: KnownServices[0].Service}
	knownChar := char(KnownServices[0].Write, PropWriteWithoutResponse|PropIndicate)

	tests := []struct {
		name        string
		services    []Service
		chars       map[string][]Characteristic
		wantService string
		wantWrite   string
		wantNotify  string
	}{
		{
			name:     "known service beats better scoring vendor service",
			services: []Service{{UUID: "FDAB"}, known},
			chars: map[string][]Characteristic{
				"FDAB":     {char("2A00", PropWrite), char("2A01", PropNotify)},
				known.UUID: {knownChar},
			},
			wantService: known.UUID,
			wantWrite:   knownChar.UUID,
			wantNotify:  knownChar.UUID,
		},
		{
			name:     "ties keep the first",
			services: []Service{{UUID: vendorA}, {UUID: vendorB}},
			chars: map[string][]Characteristic{
				vendorA: {char("2A00", PropWrite), char("2A01", PropNotify)},
				vendorB: {char("2A02", PropWrite), char("2A03", PropNotify)},
			},
			wantService: vendorA,
			wantWrite:   "2A00",
			wantNotify:  "2A01",
		},
		{
			name:     "higher score wins regardless of order",
			services: []Service{{UUID: vendorA}, {UUID: vendorB}},
			chars: map[string][]Characteristic{
				vendorA: {char("2A00", PropWriteWithoutResponse), char("2A01", PropIndicate)},
				vendorB: {char("2A02", PropWrite), char("2A03", PropNotify)},
			},
			wantService: vendorB,
			wantWrite:   "2A02",
			wantNotify:  "2A03",
		},
		{
			name:     "unqualified service is skipped",
			services: []Service{{UUID: "FDAB"}, {UUID: vendorA}},
			chars: map[string][]Characteristic{
				"FDAB":  {char("2A00", PropWrite)},
				vendorA: {char("2A02", PropWriteWithoutResponse), char("2A03", PropIndicate)},
			},
			wantService: vendorA,
			wantWrite:   "2A02",
			wantNotify:  "2A03",
		},
		{
			name:     "known characteristics preferred inside the service",
			services: []Service{fd90},
			chars: map[string][]Characteristic{
				"FD90": {char("2A00", PropWrite|PropNotify), fd90Write, fd90Notify},
			},
			wantService: "FD90",
			wantWrite:   fd90Write.UUID,
			wantNotify:  fd90Notify.UUID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &stubTransport{}
			for _, svc := range tt.services {
				st.On("DiscoverCharacteristics", p, svc).Return(tt.chars[svc.UUID], nil).Once()
			}

			pair, err := selectChannels(st, p, tt.services, zap.NewNop())
			require.NoError(t, err)
			assert.Equal(t, tt.wantService, pair.service.UUID)
			assert.Equal(t, tt.wantWrite, pair.write.UUID)
			assert.Equal(t, tt.wantNotify, pair.notify.UUID)
			st.AssertExpectations(t)
		})
	}
}

func TestSelectChannelsSkipsGenericServices(t *testing.T) {
	p := Peripheral{ID: "p"}
	st := &stubTransport{}

	services := []Service{{UUID: "1800"}, {UUID: "180F"}, {UUID: "0000180A-0000-1000-8000-00805F9B34FB"}}
	_, err := selectChannels(st, p, services, zap.NewNop())
	assert.ErrorIs(t, err, ErrConnectionFailed)
	st.AssertNotCalled(t, "DiscoverCharacteristics", mock.Anything, mock.Anything)
}

func TestSelectChannelsNoneQualified(t *testing.T) {
	p := Peripheral{ID: "p"}
	st := &stubTransport{}
	st.On("DiscoverCharacteristics", p, Service{UUID: vendorA}).
		Return([]Characteristic{char("2A00", PropRead|PropNotify)}, nil)

	_, err := selectChannels(st, p, []Service{{UUID: vendorA}}, zap.NewNop())
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestSelectChannelsSkipsServiceFailingDiscovery(t *testing.T) {
	p := Peripheral{ID: "p"}
	locked := Service{UUID: vendorA}
	st := &stubTransport{}
	st.On("DiscoverCharacteristics", p, locked).Return(nil, errors.New("insufficient authentication"))
	st.On("DiscoverCharacteristics", p, fd90).Return([]Characteristic{fd90Write, fd90Notify}, nil)

	pair, err := selectChannels(st, p, []Service{locked, fd90}, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "FD90", pair.service.UUID)
	assert.Equal(t, fd90Write.UUID, pair.write.UUID)
	assert.Equal(t, fd90Notify.UUID, pair.notify.UUID)
	st.AssertExpectations(t)
}

func TestSelectChannelsDiscoveryError(t *testing.T) {
	p := Peripheral{ID: "p"}
	st := &stubTransport{}
	cause := errors.New("gatt error")
	st.On("DiscoverCharacteristics", p, fd90).Return(nil, cause)

	_, err := selectChannels(st, p, []Service{fd90}, zap.NewNop())
	assert.ErrorIs(t, err, ErrConnectionFailed)
	assert.ErrorIs(t, err, cause)
}
