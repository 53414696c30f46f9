//go:build protogen

package directory

import (
	"context"
	"time"

	"github.com/vetlinkhq/vetsched/libs/grpcx"
	directoryv1 "github.com/vetlinkhq/vetsched/protos/gen/directory/v1"
)

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

type grpcProvider struct {
	client directoryv1.DirectoryServiceClient
}

func NewProvider(addr string) (Provider, error) {
	if addr == "" {
		return nil, nil
	}
	conn, err := grpcx.Dial(context.Background(), addr, grpcx.DialOptions{Timeout: 3 * time.Second})
	if err != nil {
		return nil, err
	}
	return &grpcProvider{client: directoryv1.NewDirectoryServiceClient(conn)}, nil
}

// Static is a fixed-assignment Provider for dev builds and tests.
type Static struct {
	Practice Practice
}

func (s *Static) GetPractice(_ context.Context, _ string) (Practice, error) {
	return s.Practice, nil
}

func (p *grpcProvider) GetPractice(ctx context.Context, practitionerID string) (Practice, error) {
	resp, err := p.client.GetPractice(ctx, &directoryv1.PracticeRequest{
		PractitionerId: practitionerID,
	})
	if err != nil {
		return Practice{}, err
	}
	return Practice{
		ClinicID:     resp.GetClinicId(),
		Timezone:     resp.GetTimezone(),
		WorkdayStart: resp.GetWorkdayStart(),
		WorkdayEnd:   resp.GetWorkdayEnd(),
	}, nil
}
