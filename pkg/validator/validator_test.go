package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type slotRequest struct {
	Time  string `json:"time" validate:"required,timeslot" binding:"required,timeslot"`
	Email string `json:"email" validate:"omitempty,email" binding:"omitempty,email"`
	Size  int    `json:"group_size" validate:"min=1" binding:"min=1"`
}

func TestValidateStruct(t *testing.T) {
	assert.Nil(t, ValidateStruct(slotRequest{Time: "08:30", Size: 1}))

	errs := ValidateStruct(slotRequest{Time: "08:15", Email: "nope", Size: 0})
	assert.Equal(t, "Must be a half-hour time slot in HH:MM format", errs["time"])
	assert.Equal(t, "Invalid email format", errs["email"])
	assert.Equal(t, "Minimum is 1", errs["group_size"])
}

func TestTimeslotRejectsMalformed(t *testing.T) {
	for _, v := range []string{"8:30", "24:00", "12:3", "noon", "10:45"} {
		errs := ValidateStruct(slotRequest{Time: v, Size: 1})
		assert.Contains(t, errs, "time", v)
	}
}

func TestFormatIsSorted(t *testing.T) {
	got := Format(map[string]string{"time": "bad", "email": "worse"})
	assert.Equal(t, "email: worse; time: bad", got)
}
