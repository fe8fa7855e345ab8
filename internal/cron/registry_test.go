package cron

import (
	"context"
	"testing"
)

type namedJob struct {
	name string
}

func (s *namedJob) Name() string              { return s.name }
func (s *namedJob) Run(context.Context) error { return nil }

func TestRegistryKeepsRegistrationOrder(t *testing.T) {
	recon := &namedJob{name: ReconciliationJobName}
	retention := &namedJob{name: OutboxRetentionJobName}
	registry, err := NewRegistry(recon, nil, retention)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	jobs := registry.Jobs()
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if jobs[0] != recon || jobs[1] != retention {
		t.Fatalf("jobs returned out of order")
	}
	jobs[0] = nil
	if registry.Jobs()[0] == nil {
		t.Fatalf("internal state leaked")
	}
	if got, ok := registry.Lookup(OutboxRetentionJobName); !ok || got != retention {
		t.Fatalf("lookup by name failed")
	}
}

func TestRegistryRejectsDuplicateAndEmptyNames(t *testing.T) {
	if _, err := NewRegistry(&namedJob{name: "a"}, &namedJob{name: "a"}); err == nil {
		t.Fatalf("expected duplicate name error")
	}
	if _, err := NewRegistry(&namedJob{name: "  "}); err == nil {
		t.Fatalf("expected empty name error")
	}
}

func TestRegistryOnly(t *testing.T) {
	registry, err := NewRegistry(&namedJob{name: "a"}, &namedJob{name: "b"}, &namedJob{name: "c"})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	subset, err := registry.Only("c", "a")
	if err != nil {
		t.Fatalf("only: %v", err)
	}
	jobs := subset.Jobs()
	if len(jobs) != 2 || jobs[0].Name() != "a" || jobs[1].Name() != "c" {
		t.Fatalf("unexpected subset %v", jobs)
	}
	if _, err := registry.Only("missing"); err == nil {
		t.Fatalf("expected unknown job error")
	}
	all, err := registry.Only()
	if err != nil || len(all.Jobs()) != 3 {
		t.Fatalf("empty filter should keep all jobs")
	}
}
