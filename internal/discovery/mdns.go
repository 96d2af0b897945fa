package discovery

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"

	"github.com/muurk/earctl/internal/logging"
)

const (
	// ServiceType is the mDNS service type bridges register
	ServiceType = "_earctl._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for bridge discovery
	DefaultScanTimeout = 5 * time.Second

	// DefaultAPIPath is the API prefix when the path record is missing
	DefaultAPIPath = "/api"
)

// TXT record keys
const (
	txtVersion = "v"
	txtDevice  = "device"
	txtModel   = "model"
	txtPath    = "path"
)

// instancePattern matches bridge instance names (e.g., "earctl-desk")
var instancePattern = regexp.MustCompile(`^earctl-([A-Za-z0-9][A-Za-z0-9-]*)$`)

// Scanner handles mDNS bridge discovery
type Scanner struct {
	// Timeout is the maximum time to wait for answers
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// ScanForBridges collects every bridge that answers within the timeout.
func (s *Scanner) ScanForBridges(ctx context.Context) ([]*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	var (
		mu      sync.Mutex
		bridges []*Bridge
		seen    = make(map[string]bool)
	)
	go func() {
		for entry := range entries {
			b := s.parseServiceEntry(entry)
			if b == nil {
				continue
			}
			mu.Lock()
			if !seen[b.Instance] {
				seen[b.Instance] = true
				bridges = append(bridges, b)
			}
			mu.Unlock()
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return append([]*Bridge(nil), bridges...), nil
}

// WaitForBridge returns the first bridge that Matches key.
func (s *Scanner) WaitForBridge(ctx context.Context, key string) (*Bridge, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	entries := make(chan *zeroconf.ServiceEntry)
	found := make(chan *Bridge, 1)

	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	go func() {
		for entry := range entries {
			b := s.parseServiceEntry(entry)
			if b != nil && b.Matches(key) {
				select {
				case found <- b:
				default:
				}
				cancel()
				return
			}
		}
	}()

	if err := resolver.Browse(ctx, ServiceType, ServiceDomain, entries); err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	select {
	case b := <-found:
		return b, nil
	case <-ctx.Done():
		select {
		case b := <-found:
			return b, nil
		default:
		}
		return nil, fmt.Errorf("bridge %s not found within timeout", key)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Bridge.
// Returns nil if the entry is not an earctl bridge.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Bridge {
	matches := instancePattern.FindStringSubmatch(entry.Instance)
	if len(matches) < 2 {
		return nil
	}

	// prefer IPv4
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" || entry.Port == 0 {
		return nil
	}

	return &Bridge{
		Instance:     entry.Instance,
		Host:         matches[1],
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     parseTXT(entry.Text),
		DiscoveredAt: time.Now(),
	}
}

func parseTXT(records []string) map[string]string {
	metadata := make(map[string]string, len(records))
	for _, txt := range records {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}
	return metadata
}

// ScanForBridges is a convenience function to scan with a custom timeout
func ScanForBridges(timeout time.Duration) ([]*Bridge, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.ScanForBridges(context.Background())
}

// Announcement describes what a bridge advertises.
type Announcement struct {
	Host       string
	Port       int
	Version    string
	Peripheral string
	Model      string
}

// InstanceName is the mDNS instance name for host.
func InstanceName(host string) string {
	var b strings.Builder
	for _, r := range host {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	label := strings.Trim(b.String(), "-")
	if label == "" {
		label = "bridge"
	}
	return "earctl-" + label
}

func (a Announcement) txt() []string {
	return []string{
		txtVersion + "=" + a.Version,
		txtDevice + "=" + a.Peripheral,
		txtModel + "=" + a.Model,
		txtPath + "=" + DefaultAPIPath,
	}
}

// Advertiser keeps a bridge registered on mDNS.
type Advertiser struct {
	mu     sync.Mutex
	server *zeroconf.Server
	ann    Announcement
	log    *zap.Logger
}

func register(a Announcement) (*zeroconf.Server, error) {
	server, err := zeroconf.Register(InstanceName(a.Host), ServiceType, ServiceDomain, a.Port, a.txt(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to register mDNS service: %w", err)
	}
	return server, nil
}

// Advertise registers the bridge. Call Shutdown to withdraw it.
func Advertise(a Announcement) (*Advertiser, error) {
	server, err := register(a)
	if err != nil {
		return nil, err
	}
	adv := &Advertiser{server: server, ann: a, log: logging.Named("discovery")}
	adv.log.Info("Advertising bridge",
		zap.String("instance", InstanceName(a.Host)),
		zap.Int("port", a.Port))
	return adv, nil
}

// Update re-registers with new TXT records, e.g. after a headset connects.
func (adv *Advertiser) Update(a Announcement) error {
	adv.mu.Lock()
	defer adv.mu.Unlock()
	if adv.server == nil || a == adv.ann {
		return nil
	}
	adv.server.Shutdown()
	adv.server = nil

	server, err := register(a)
	if err != nil {
		return err
	}
	adv.server = server
	adv.ann = a
	adv.log.Debug("Updated bridge records", zap.Strings("txt", a.txt()))
	return nil
}

// Shutdown withdraws the registration.
func (adv *Advertiser) Shutdown() {
	adv.mu.Lock()
	defer adv.mu.Unlock()
	if adv.server != nil {
		adv.server.Shutdown()
		adv.server = nil
	}
}
