package company

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLength   = 100
	maxDomainLength = 253
	domainPattern   = `^[a-z0-9]([a-z0-9-]*[a-z0-9])?(\.[a-z0-9]([a-z0-9-]*[a-z0-9])?)+$`
)

var domainRegex = regexp.MustCompile(domainPattern)

// Normalize trims the name and lowercases the domain in place.
func Normalize(c *Company) {
	c.Name = strings.TrimSpace(c.Name)
	c.Domain = strings.ToLower(strings.TrimSpace(c.Domain))
}

// ValidateName checks if a company name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateDomain checks that domain looks like a DNS name (acme.com).
func ValidateDomain(domain string) error {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return fmt.Errorf("%w: domain cannot be empty", ErrInvalidDomain)
	}
	if len(domain) > maxDomainLength {
		return fmt.Errorf("%w: domain exceeds %d characters", ErrInvalidDomain, maxDomainLength)
	}
	if !domainRegex.MatchString(domain) {
		return fmt.Errorf("%w: %q is not a domain name", ErrInvalidDomain, domain)
	}
	return nil
}

// Validate validates a Company before persistence.
func Validate(c *Company) error {
	if err := ValidateName(c.Name); err != nil {
		return err
	}
	return ValidateDomain(c.Domain)
}
