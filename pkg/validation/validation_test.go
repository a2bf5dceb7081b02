package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  ghost_cycle  ", "ghost_cycle"},
		{"strips null bytes", "ghost\x00cycle", "ghostcycle"},
		{"strips control characters", "ghost\x1bcycle", "ghostcycle"},
		{"keeps newline and tab", "a\n\tb", "a\n\tb"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeString(tt.input))
		})
	}
}

func TestValidateModelName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid with underscore", "ghost_cycle", false},
		{"valid with hyphen", "choke-point-v2", false},
		{"too short", "gc", true},
		{"empty", "", true},
		{"leading hyphen", "-ghost", true},
		{"spaces", "ghost cycle", true},
		{"sql injection attempt", "ghost'; DROP TABLE runs;--", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateModelName(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateAssetID(t *testing.T) {
	assert.NoError(t, ValidateAssetID("T-101"))
	assert.NoError(t, ValidateAssetID("site-01-hauler-02"))
	assert.Error(t, ValidateAssetID(""))
	assert.Error(t, ValidateAssetID("_leading"))
	assert.Error(t, ValidateAssetID("has space"))
}

func TestValidateTimeWindow(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, ValidateTimeWindow(from, from.Add(24*time.Hour)))
	assert.Error(t, ValidateTimeWindow(from, from))
	assert.Error(t, ValidateTimeWindow(from, from.Add(-time.Hour)))
	assert.Error(t, ValidateTimeWindow(from, from.Add(32*24*time.Hour)))
	assert.NoError(t, ValidateTimeWindow(from, from.Add(31*24*time.Hour)))
}

func TestValidateUsername(t *testing.T) {
	assert.NoError(t, ValidateUsername("operator"))
	assert.Error(t, ValidateUsername(""))
	assert.Error(t, ValidateUsername("ab"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("Str0ng!pass"))
	assert.Error(t, ValidatePassword("short1!"))
	assert.Error(t, ValidatePassword("alllowercase1!"))
	assert.Error(t, ValidatePassword("ALLUPPERCASE1!"))
	assert.Error(t, ValidatePassword("NoNumbers!"))
	assert.Error(t, ValidatePassword("NoSpecial123"))
}
