package availability

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		input   string
		want    TimeOfDay
		wantErr bool
	}{
		{input: "09:00", want: 540},
		{input: "9:30", want: 570},
		{input: "00:00", want: 0},
		{input: "23:59", want: 1439},
		{input: "24:00", want: 1440},
		{input: " 12:15 ", want: 735},
		{input: "24:01", wantErr: true},
		{input: "12:60", wantErr: true},
		{input: "12:5", wantErr: true},
		{input: "1200", wantErr: true},
		{input: "ab:cd", wantErr: true},
		{input: "", wantErr: true},
		{input: "123:00", wantErr: true},
		{input: "09:+5", wantErr: true},
		{input: "+9:00", wantErr: true},
		{input: "-0:30", wantErr: true},
		{input: "09:-1", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTimeOfDay(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidArgument))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTimeOfDayStringPadsAndOrders(t *testing.T) {
	assert.Equal(t, "09:05", TimeOfDay(545).String())
	assert.Equal(t, "24:00", TimeOfDay(1440).String())
	assert.Less(t, TimeOfDay(545).String(), TimeOfDay(600).String())
}

func TestTimeOfDayJSON(t *testing.T) {
	data, err := json.Marshal(Slot{Start: MustParseTimeOfDay("09:00"), End: MustParseTimeOfDay("09:30")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"start":"09:00","end":"09:30"}`, string(data))

	var slot Slot
	require.NoError(t, json.Unmarshal([]byte(`{"start":"13:00","end":"14:00"}`), &slot))
	assert.Equal(t, TimeOfDay(780), slot.Start)
	assert.Equal(t, TimeOfDay(840), slot.End)

	assert.Error(t, json.Unmarshal([]byte(`{"start":"25:00","end":"14:00"}`), &slot))

	_, err = json.Marshal(Slot{Start: TimeOfDay(-1)})
	assert.Error(t, err)
}

func TestWeeklyAvailabilityValidate(t *testing.T) {
	ok := WeeklyAvailability{
		{Weekday: 1, Ranges: []TimeRange{{Start: 540, End: 720}}},
		{Weekday: 3, Ranges: []TimeRange{{Start: 540, End: 720}}},
	}
	require.NoError(t, ok.Validate())

	dup := WeeklyAvailability{
		{Weekday: 1, Ranges: []TimeRange{{Start: 540, End: 720}}},
		{Weekday: 1, Ranges: []TimeRange{{Start: 780, End: 900}}},
	}
	err := dup.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	badDay := WeeklyAvailability{{Weekday: 7}}
	assert.ErrorIs(t, badDay.Validate(), ErrInvalidArgument)

	badRange := WeeklyAvailability{{Weekday: 2, Ranges: []TimeRange{{Start: 540, End: 1500}}}}
	assert.ErrorIs(t, badRange.Validate(), ErrInvalidArgument)
}
