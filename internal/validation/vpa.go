package validation

import "regexp"

var vpaPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+@[a-zA-Z0-9]+$`)

// ValidateVPA checks the user@handle form of a UPI virtual payment address.
func ValidateVPA(vpa string) bool {
	return vpaPattern.MatchString(vpa)
}
