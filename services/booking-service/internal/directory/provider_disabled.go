//go:build !protogen

package directory

import "context"

// Practice is the clinic assignment and working hours for one practitioner,
// served by the clinic directory. Looked up once per booking and treated as a
// read-only fact.
type Practice struct {
	ClinicID     string
	Timezone     string
	WorkdayStart string // "09:00" clinic-local
	WorkdayEnd   string // "17:00" clinic-local
}

type Provider interface {
	GetPractice(ctx context.Context, practitionerID string) (Practice, error)
}

// NewProvider returns nil in builds without generated proto stubs; callers
// fall back to static clinic configuration.
func NewProvider(_ string) (Provider, error) {
	return nil, nil
}

// Static is a fixed-assignment Provider for dev builds and tests.
type Static struct {
	Practice Practice
}

func (s *Static) GetPractice(_ context.Context, _ string) (Practice, error) {
	return s.Practice, nil
}
