package migration

import (
	"errors"
	"reflect"
	"testing"

	"github.com/example/sqlmigrate/internal/testfixtures"
)

func catalogFiles(d Direction, versions ...string) []File {
	files := make([]File, len(versions))
	for i, v := range versions {
		files[i] = File{Version: v, Direction: d, Name: FileName(v, d)}
	}
	return files
}

func TestPlanApply(t *testing.T) {
	v1 := testfixtures.Version(1, "one")
	v2 := testfixtures.Version(2, "two")
	v3 := testfixtures.Version(3, "three")
	up := catalogFiles(Up, v1, v2, v3)

	tests := []struct {
		name      string
		applied   []string
		target    string
		strict    bool
		want      []string
		wantFound bool
		wantErr   error
	}{
		{name: "no target", applied: []string{v1}, want: []string{v2, v3}},
		{name: "target inside set", applied: []string{v1}, target: v2, want: []string{v2}, wantFound: true},
		{name: "target given as filename", applied: []string{v1}, target: FileName(v2, Down), want: []string{v2}, wantFound: true},
		{name: "absent target runs everything", applied: []string{v1}, target: "99", want: []string{v2, v3}},
		{name: "already applied target runs everything", applied: []string{v1}, target: v1, want: []string{v2, v3}},
		{name: "absent target in strict mode", applied: []string{v1}, target: "99", strict: true, wantErr: ErrTargetVersionNotFound},
		{name: "strict mode with found target", applied: nil, target: v1, strict: true, want: []string{v1}, wantFound: true},
		{name: "fully applied", applied: []string{v1, v2, v3}, want: []string{}},
		{name: "ledger rows without files are ignored", applied: []string{"0000000000001-ghost", v1}, want: []string{v2, v3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanApply(up, tt.applied, tt.target, tt.strict)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := plan.Versions(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("plan = %v, want %v", got, tt.want)
			}
			if plan.TargetFound != tt.wantFound {
				t.Fatalf("TargetFound = %v, want %v", plan.TargetFound, tt.wantFound)
			}
			if plan.Direction != Up {
				t.Fatalf("unexpected direction %q", plan.Direction)
			}
		})
	}
}

func TestPlanRevert(t *testing.T) {
	v1 := testfixtures.Version(1, "one")
	v2 := testfixtures.Version(2, "two")
	v3 := testfixtures.Version(3, "three")
	down := catalogFiles(Down, v3, v2, v1)

	tests := []struct {
		name      string
		applied   []string
		target    string
		strict    bool
		want      []string
		wantFound bool
		wantErr   error
	}{
		{name: "no target reverts everything", applied: []string{v3, v2, v1}, want: []string{v3, v2, v1}},
		{name: "target stops after match", applied: []string{v3, v2, v1}, target: v2, want: []string{v3, v2}, wantFound: true},
		{name: "only applied versions", applied: []string{v1}, want: []string{v1}},
		{name: "nothing applied", applied: nil, want: []string{}},
		{name: "absent target reverts everything", applied: []string{v2, v1}, target: v3, want: []string{v2, v1}},
		{name: "absent target in strict mode", applied: []string{v2, v1}, target: v3, strict: true, wantErr: ErrTargetVersionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanRevert(down, tt.applied, tt.target, tt.strict)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := plan.Versions(); !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("plan = %v, want %v", got, tt.want)
			}
			if plan.TargetFound != tt.wantFound {
				t.Fatalf("TargetFound = %v, want %v", plan.TargetFound, tt.wantFound)
			}
		})
	}
}

func TestPlanApply_Idempotent(t *testing.T) {
	up := catalogFiles(Up, testfixtures.Version(1, "a"), testfixtures.Version(2, "b"))

	first, err := PlanApply(up, nil, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := PlanApply(up, nil, "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("plans differ: %+v vs %+v", first, second)
	}
}

func TestPlan_EmptyCatalog(t *testing.T) {
	plan, err := PlanApply(nil, []string{testfixtures.Version(1, "a")}, "", false)
	if err != nil || len(plan.Files) != 0 {
		t.Fatalf("expected empty plan, got %+v, %v", plan, err)
	}
	plan, err = PlanRevert(nil, nil, "anything", false)
	if err != nil || len(plan.Files) != 0 || plan.TargetFound {
		t.Fatalf("expected empty plan, got %+v, %v", plan, err)
	}
}
