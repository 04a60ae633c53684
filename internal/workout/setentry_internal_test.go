package workout

import "testing"

func TestValidateSet(t *testing.T) {
	tests := []struct {
		name    string
		variant SetVariant
		rpe     float64
		wantMsg string
	}{
		{name: "valid bilateral", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 7, wantMsg: ""},
		{name: "valid unilateral", variant: Unilateral{WeightKg: 20, Reps: 12, Side: SideLeft}, rpe: 7, wantMsg: ""},
		{name: "valid timed", variant: Timed{Seconds: 60}, rpe: 7, wantMsg: ""},
		{name: "valid bodyweight", variant: Bodyweight{Reps: 10}, rpe: 7, wantMsg: ""},
		{name: "zero weight", variant: Bilateral{WeightKg: 0, Reps: 5}, rpe: 7, wantMsg: "Enter weight (kg)"},
		{name: "zero reps", variant: Bilateral{WeightKg: 100, Reps: 0}, rpe: 7, wantMsg: "Enter reps"},
		{name: "zero duration", variant: Timed{Seconds: 0}, rpe: 7, wantMsg: "Enter duration (seconds)"},
		{name: "zero bodyweight reps", variant: Bodyweight{Reps: 0}, rpe: 7, wantMsg: "Enter reps"},
		{name: "implausible reps", variant: Bilateral{WeightKg: 100, Reps: 101}, rpe: 7, wantMsg: "Reps seem too high — double check"},
		{name: "implausible weight", variant: Bilateral{WeightKg: 501, Reps: 5}, rpe: 7, wantMsg: "Weight seems too high — double check"},
		{name: "implausible duration", variant: Timed{Seconds: 101}, rpe: 7, wantMsg: "Reps seem too high — double check"},
		{name: "boundary reps pass", variant: Bilateral{WeightKg: 100, Reps: 100}, rpe: 7, wantMsg: ""},
		{name: "boundary weight passes", variant: Bilateral{WeightKg: 500, Reps: 5}, rpe: 7, wantMsg: ""},
		{name: "rpe below the scale", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 5.5, wantMsg: "RPE must be between 6 and 10"},
		{name: "rpe above the scale", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 99, wantMsg: "RPE must be between 6 and 10"},
		{name: "rpe off the half steps", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 7.3, wantMsg: "RPE moves in half steps"},
		{name: "rpe scale boundaries pass", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 6, wantMsg: ""},
		{name: "rpe top of scale passes", variant: Bilateral{WeightKg: 100, Reps: 8}, rpe: 10, wantMsg: ""},
		{name: "missing variant wins over bad rpe", variant: Bilateral{WeightKg: 0, Reps: 5}, rpe: 99, wantMsg: "Enter weight (kg)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateSet(tt.variant, tt.rpe)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("validateSet() = %q, want nil", err.Error())
				}
				return
			}
			if err == nil {
				t.Fatalf("validateSet() = nil, want %q", tt.wantMsg)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("validateSet() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestSetEntry_VolumeKg(t *testing.T) {
	tests := []struct {
		name    string
		variant SetVariant
		want    float64
	}{
		{name: "bilateral", variant: Bilateral{WeightKg: 100, Reps: 8}, want: 800},
		{name: "unilateral", variant: Unilateral{WeightKg: 20, Reps: 10, Side: SideRight}, want: 200},
		{name: "timed carries no load", variant: Timed{Seconds: 60}, want: 0},
		{name: "bodyweight carries no load", variant: Bodyweight{Reps: 15}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := SetEntry{Number: 1, Variant: tt.variant}
			if got := entry.VolumeKg(); got != tt.want {
				t.Errorf("VolumeKg() = %v, want %v", got, tt.want)
			}
		})
	}
}
