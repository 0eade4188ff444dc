package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Service reads local MaxMind databases. No lookups leave the process.
type Service struct {
	cityReader *geoip2.Reader
	asnReader  *geoip2.Reader
}

// NewService opens the .mmdb files. Either path may be empty, in which case
// the matching fields are simply left blank; both empty is an error.
func NewService(cityDBPath, asnDBPath string) (*Service, error) {
	if cityDBPath == "" && asnDBPath == "" {
		return nil, fmt.Errorf("geoip: no database path configured")
	}

	s := &Service{}
	if cityDBPath != "" {
		r, err := geoip2.Open(cityDBPath)
		if err != nil {
			return nil, fmt.Errorf("geoip: open city database: %w", err)
		}
		s.cityReader = r
	}
	if asnDBPath != "" {
		r, err := geoip2.Open(asnDBPath)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("geoip: open asn database: %w", err)
		}
		s.asnReader = r
	}
	return s, nil
}

// Close releases the database readers.
func (s *Service) Close() {
	if s.cityReader != nil {
		s.cityReader.Close()
	}
	if s.asnReader != nil {
		s.asnReader.Close()
	}
}

// ResolveIP returns the ISO country code, ASN and AS organization for ip.
// It satisfies engine.HostResolver.
func (s *Service) ResolveIP(ipAddress string) (string, uint, string, error) {
	ip := net.ParseIP(ipAddress)
	if ip == nil {
		return "", 0, "", fmt.Errorf("geoip: invalid ip address %q", ipAddress)
	}

	var (
		country string
		asn     uint
		org     string
	)
	if s.cityReader != nil {
		record, err := s.cityReader.City(ip)
		if err != nil {
			return "", 0, "", fmt.Errorf("geoip: city lookup: %w", err)
		}
		country = record.Country.IsoCode
	}
	if s.asnReader != nil {
		record, err := s.asnReader.ASN(ip)
		if err != nil {
			return "", 0, "", fmt.Errorf("geoip: asn lookup: %w", err)
		}
		asn = uint(record.AutonomousSystemNumber)
		org = record.AutonomousSystemOrganization
	}
	return country, asn, org, nil
}
