// Package discovery advertises a canvas server on the local network over
// mDNS and finds advertised servers from the client side.
package discovery

import (
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service type of a canvas server
const ServiceType = "_goatcanvas._tcp"

// Server is a discovered canvas server
type Server struct {
	Instance string
	Addr     string // host:port
	Info     []string
}

// Advertise announces a canvas server listening on port. An empty instance
// name falls back to the hostname. Shut the returned server down on exit.
func Advertise(instance string, port int) (*mdns.Server, error) {
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("could not get hostname: %w", err)
		}
		instance = host
	}

	info := []string{"goat-canvas", "path=/ws"}

	service, err := mdns.NewMDNSService(
		instance,    // Instance name shown to browsers
		ServiceType, // Type of service
		"",          // Domain (empty for ".local")
		"",          // Hostname (empty for the OS hostname)
		port,
		nil, // IPs (nil to auto-detect)
		info,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}

	log.Printf("[mdns] advertising %q as %s on port %d", instance, ServiceType, port)
	return server, nil
}

// Browse looks for canvas servers for up to timeout and returns the ones
// that answered, in the order they answered
func Browse(timeout time.Duration) ([]Server, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	var found []Server
	done := make(chan struct{})

	go func() {
		defer close(done)
		seen := make(map[string]bool)
		for e := range entries {
			s, ok := entryToServer(e)
			if !ok || seen[s.Addr] {
				continue
			}
			seen[s.Addr] = true
			found = append(found, s)
		}
	}()

	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true
	err := mdns.Query(params)
	close(entries)
	<-done

	if err != nil {
		return nil, fmt.Errorf("mDNS query: %w", err)
	}
	return found, nil
}

func entryToServer(e *mdns.ServiceEntry) (Server, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return Server{}, false
	}
	return Server{
		Instance: e.Name,
		Addr:     net.JoinHostPort(e.AddrV4.String(), fmt.Sprint(e.Port)),
		Info:     e.InfoFields,
	}, true
}
