package common

import (
	"errors"
	"fmt"
	"net/url"
)

// ValidateEngine checks that engine is one of the supported RPG Maker engines, "mv" or "mz".
func ValidateEngine(engine string) error {
	if engine != "mv" && engine != "mz" {
		return fmt.Errorf("invalid engine %q, only mv and mz are supported", engine)
	}

	return nil
}

// ValidateURL checks that raw is an absolute http or https URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("invalid url, only http and https are supported")
	}

	if u.Host == "" {
		return errors.New("invalid url, missing host")
	}

	return nil
}
