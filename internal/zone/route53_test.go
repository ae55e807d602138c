package zone

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
)

type fakeRoute53 struct {
	createdName string
	deletedID   string
	createErr   error
	deleteErr   error
}

func (f *fakeRoute53) CreateHostedZone(_ context.Context, params *route53.CreateHostedZoneInput, _ ...func(*route53.Options)) (*route53.CreateHostedZoneOutput, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdName = aws.ToString(params.Name)
	return &route53.CreateHostedZoneOutput{
		HostedZone: &types.HostedZone{Id: aws.String("/hostedzone/Z0ABC123")},
	}, nil
}

func (f *fakeRoute53) DeleteHostedZone(_ context.Context, params *route53.DeleteHostedZoneInput, _ ...func(*route53.Options)) (*route53.DeleteHostedZoneOutput, error) {
	if f.deleteErr != nil {
		return nil, f.deleteErr
	}
	f.deletedID = aws.ToString(params.Id)
	return &route53.DeleteHostedZoneOutput{}, nil
}

func TestRoute53Create(t *testing.T) {
	fake := &fakeRoute53{}
	m := &Route53{client: fake}

	id, err := m.Create(context.Background(), "example.com")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if id != "Z0ABC123" {
		t.Errorf("Create() id = %q, want Z0ABC123 (prefix stripped)", id)
	}
	if fake.createdName != "example.com" {
		t.Errorf("created zone name = %q", fake.createdName)
	}
}

func TestRoute53Release(t *testing.T) {
	fake := &fakeRoute53{}
	m := &Route53{client: fake}

	if err := m.Release(context.Background(), "Z0ABC123"); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if fake.deletedID != "Z0ABC123" {
		t.Errorf("deleted id = %q", fake.deletedID)
	}

	// Empty zone id is a no-op, not an error.
	fake.deleteErr = errors.New("should not be called")
	if err := m.Release(context.Background(), ""); err != nil {
		t.Errorf("Release(\"\") error = %v, want nil", err)
	}
}

func TestRoute53ReleaseError(t *testing.T) {
	fake := &fakeRoute53{deleteErr: errors.New("NoSuchHostedZone")}
	m := &Route53{client: fake}

	if err := m.Release(context.Background(), "Z404"); err == nil {
		t.Error("Release() error = nil, want wrapped provider error")
	}
}
