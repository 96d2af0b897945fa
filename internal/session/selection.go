package session

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bluetoothBase is the Bluetooth base UUID that 16- and 32-bit short forms
// expand into.
var bluetoothBase = uuid.MustParse("00000000-0000-1000-8000-00805F9B34FB")

// ParseUUID parses a 16-bit ("FD90"), 32-bit or full 128-bit UUID string.
func ParseUUID(s string) (uuid.UUID, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	switch len(s) {
	case 4, 8:
		var v uint32
		if _, err := fmt.Sscanf(s, "%x", &v); err != nil {
			return uuid.Nil, fmt.Errorf("invalid short uuid %q: %w", s, err)
		}
		u := bluetoothBase
		u[0], u[1], u[2], u[3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
		return u, nil
	}
	return uuid.Parse(s)
}

// ShortForm returns the upper-case hex short form of a UUID derived from the
// Bluetooth base, and false for vendor 128-bit UUIDs.
func ShortForm(u uuid.UUID) (string, bool) {
	if !bytes.Equal(u[4:], bluetoothBase[4:]) {
		return "", false
	}
	if u[0] == 0 && u[1] == 0 {
		return fmt.Sprintf("%02X%02X", u[2], u[3]), true
	}
	return fmt.Sprintf("%02X%02X%02X%02X", u[0], u[1], u[2], u[3]), true
}

// uuidEqual compares two UUID strings in any supported form.
func uuidEqual(a, b string) bool {
	ua, err := ParseUUID(a)
	if err != nil {
		return strings.EqualFold(a, b)
	}
	ub, err := ParseUUID(b)
	if err != nil {
		return false
	}
	return ua == ub
}

// KnownService is a proprietary control service and its characteristics.
type KnownService struct {
	Service string
	Write   string
	Notify  string
}

// KnownServices lists the proprietary services shipped by Nothing and CMF
// firmware. Older devices expose a single characteristic for both directions.
var KnownServices = []KnownService{
	{
		Service: "AEAC4A03-DFF5-498F-843A-34487CF133EB",
		Write:   "AEAC4A03-DFF5-498F-843A-34487CF133EB",
		Notify:  "AEAC4A03-DFF5-498F-843A-34487CF133EB",
	},
	{
		Service: "FD90",
		Write:   "68745353-1810-4B13-83A2-C1B21B652C9B",
		Notify:  "CA235943-1810-45E6-8326-FC8CA3BC45CE",
	},
}

// genericServices are standard GATT services that never carry the protocol.
var genericServices = []string{
	"1800", // Generic Access
	"1801", // Generic Attribute
	"180A", // Device Information
	"180F", // Battery
	"1812", // HID
	"180D", // Heart Rate
	"1805", // Current Time
}

// Score weights
const (
	scoreBase         = 100
	scoreFDPrefix     = 50
	scoreFullUUID     = 30
	scoreKnownService = 1000
	scoreAckedWrite   = 10
	scoreNotify       = 10
)

func isGenericService(id string) bool {
	for _, g := range genericServices {
		if uuidEqual(id, g) {
			return true
		}
	}
	return false
}

func knownService(id string) (KnownService, bool) {
	for _, k := range KnownServices {
		if uuidEqual(id, k.Service) {
			return k, true
		}
	}
	return KnownService{}, false
}

// channelPair is a qualified candidate: a service with a usable write and
// notify characteristic.
type channelPair struct {
	service Service
	write   Characteristic
	notify  Characteristic
	score   int
}

// pickChannels finds the write and notify characteristics of one service.
// Known characteristic UUIDs win over capability matches.
func pickChannels(svc Service, chars []Characteristic) (channelPair, bool) {
	pair := channelPair{service: svc}
	var haveWrite, haveNotify bool

	if k, ok := knownService(svc.UUID); ok {
		for _, c := range chars {
			if !haveWrite && uuidEqual(c.UUID, k.Write) && c.Properties.CanWrite() {
				pair.write, haveWrite = c, true
			}
			if !haveNotify && uuidEqual(c.UUID, k.Notify) && c.Properties.CanNotify() {
				pair.notify, haveNotify = c, true
			}
		}
	}

	for _, c := range chars {
		if !haveWrite && c.Properties.CanWrite() {
			pair.write, haveWrite = c, true
		}
		if !haveNotify && c.Properties.CanNotify() {
			pair.notify, haveNotify = c, true
		}
	}

	return pair, haveWrite && haveNotify
}

// scoreCandidate ranks a qualified service. A known proprietary service
// outranks any combination of the other bonuses.
func scoreCandidate(pair channelPair) int {
	score := scoreBase

	if u, err := ParseUUID(pair.service.UUID); err == nil {
		if short, ok := ShortForm(u); ok {
			if strings.HasPrefix(short, "FD") {
				score += scoreFDPrefix
			}
		} else {
			score += scoreFullUUID
		}
	}
	if _, ok := knownService(pair.service.UUID); ok {
		score += scoreKnownService
	}
	if pair.write.Properties.Has(PropWrite) {
		score += scoreAckedWrite
	}
	if pair.notify.Properties.Has(PropNotify) {
		score += scoreNotify
	}
	return score
}

// selectChannels runs the selection heuristic over every non-generic service.
// Ties keep the first candidate found. A service whose characteristics cannot
// be discovered is skipped; the last such error is kept as the cause when no
// service qualifies.
func selectChannels(t Transport, p Peripheral, services []Service, log *zap.Logger) (channelPair, error) {
	var (
		best    channelPair
		found   bool
		lastErr error
	)

	for _, svc := range services {
		if isGenericService(svc.UUID) {
			continue
		}
		chars, err := t.DiscoverCharacteristics(p, svc)
		if err != nil {
			log.Debug("Skipping service", zap.String("service", svc.UUID), zap.Error(err))
			lastErr = err
			continue
		}
		pair, ok := pickChannels(svc, chars)
		if !ok {
			continue
		}
		pair.score = scoreCandidate(pair)
		if !found || pair.score > best.score {
			best, found = pair, true
		}
	}

	if !found {
		return channelPair{}, newError(KindConnectionFailed, "no service with write and notify characteristics", lastErr)
	}
	return best, nil
}
