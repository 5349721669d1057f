package main

import (
	"testing"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parsedFlags(t *testing.T, args ...string) (*recurrenceFlags, *cobra.Command) {
	t.Helper()
	rf := &recurrenceFlags{}
	cmd := &cobra.Command{Use: "test"}
	rf.register(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return rf, cmd
}

func TestRecurrenceFlagsBuild(t *testing.T) {
	today := model.NewDate(2025, time.March, 15)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "defaults", args: nil, want: "daily from 2025-03-15 until never"},
		{name: "named", args: []string{"--freq", "monthly", "--start", "2025-01-31"}, want: "monthly from 2025-01-31 until never"},
		{name: "weekdays", args: []string{"--freq", "custom", "--on", "mon,thu"}, want: "custom on mon,thu from 2025-03-15 until never"},
		{name: "interval implies custom", args: []string{"--every", "3", "--unit", "day"}, want: "custom every 3 days from 2025-03-15 until never"},
		{name: "unit only", args: []string{"--unit", "week"}, want: "custom every week from 2025-03-15 until never"},
		{name: "until", args: []string{"--until", "2025-04-01"}, want: "daily from 2025-03-15 until 2025-04-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rf, _ := parsedFlags(t, tt.args...)
			rec, err := rf.build(today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, describeRecurrence(rec))
		})
	}
}

func TestRecurrenceFlagsRejectInvalidCombinations(t *testing.T) {
	today := model.NewDate(2025, time.March, 15)

	for _, args := range [][]string{
		{"--freq", "weekly", "--every", "2"},
		{"--freq", "custom"},
		{"--on", "mon", "--every", "2"},
		{"--on", "someday"},
		{"--unit", "fortnight"},
		{"--until", "soon"},
		{"--start", "2025-02-30"},
	} {
		rf, _ := parsedFlags(t, args...)
		_, err := rf.build(today)
		assert.Error(t, err, "args %v", args)
	}
}

func TestRecurrenceFlagsApplyKeepsUnsetParts(t *testing.T) {
	base := model.Recurrence{
		Anchor:    model.NewDate(2025, time.January, 1),
		Frequency: model.Biweekly(),
		EndRepeat: model.EndOn(model.NewDate(2025, time.December, 31)),
	}

	rf, cmd := parsedFlags(t, "--freq", "weekly")
	assert.True(t, rf.anyChanged(cmd))
	rec, err := rf.apply(cmd, base)
	require.NoError(t, err)
	assert.Equal(t, "weekly from 2025-01-01 until 2025-12-31", describeRecurrence(rec))

	rf, cmd = parsedFlags(t, "--until", "never")
	rec, err = rf.apply(cmd, base)
	require.NoError(t, err)
	assert.Equal(t, "biweekly from 2025-01-01 until never", describeRecurrence(rec))

	rf, cmd = parsedFlags(t)
	assert.False(t, rf.anyChanged(cmd))
	rec, err = rf.apply(cmd, base)
	require.NoError(t, err)
	assert.True(t, rec.Equal(base))
}

func TestParseDateFlag(t *testing.T) {
	today := model.NewDate(2025, time.March, 15)

	d, err := parseDateFlag("", today)
	require.NoError(t, err)
	assert.True(t, d.Equal(today))

	d, err = parseDateFlag("Today", today)
	require.NoError(t, err)
	assert.True(t, d.Equal(today))

	d, err = parseDateFlag("2024-02-29", today)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = parseDateFlag("2025-02-30", today)
	assert.Error(t, err)
}
