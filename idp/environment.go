package idp

import (
	"fmt"
	"strings"
)

type Environment int

const (
	Local Environment = iota
	Staging
	Prod
)

// BaseURL returns the default backend address for the environment. Deployments
// usually override it with api.base_url / IDP_API_BASE_URL.
func (e Environment) BaseURL() string {
	switch e {
	case Prod:
		return "https://api.internationaldrivingpermit.org"
	case Staging:
		return "https://staging-api.internationaldrivingpermit.org"
	case Local:
		return "http://localhost:8000"
	}
	panic("Invalid environment")
}

func (e Environment) Name() string {
	switch e {
	case Prod:
		return "prod"
	case Staging:
		return "staging"
	case Local:
		return "local"
	}
	panic("Invalid environment")
}

func (e Environment) String() string {
	return e.Name()
}

func (e *Environment) UnmarshalText(text []byte) error {
	val := strings.ToLower(strings.TrimSpace(string(text)))

	switch val {
	case "prod", "production":
		*e = Prod
	case "staging":
		*e = Staging
	case "local", "":
		*e = Local
	default:
		return fmt.Errorf("invalid IDP_ENV: %q (allowed: prod, staging, local)", val)
	}
	return nil
}
