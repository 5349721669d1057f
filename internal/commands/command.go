package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/sandeepkv93/habitd/internal/model"
)

type Type string

const (
	TypeHabit   Type = "habit"
	TypeRoutine Type = "routine"
	TypeItem    Type = "item"
	TypeRename  Type = "rename"
	TypeFreq    Type = "freq"
	TypeUntil   Type = "until"
	TypeGoto    Type = "goto"
	TypeDelete  Type = "delete"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NameArgs carries the free-text name of habit, routine, item and rename.
type NameArgs struct {
	Name string
}

// FreqArgs describes a frequency change. Inherit clears an item override.
type FreqArgs struct {
	Kind     model.FrequencyKind
	Interval int
	Unit     model.IntervalUnit
	Weekdays []time.Weekday
	Inherit  bool
}

// Frequency builds the frequency value. It fails for Inherit.
func (a FreqArgs) Frequency() (model.Frequency, error) {
	if a.Inherit {
		return model.Frequency{}, fmt.Errorf("inherit has no frequency")
	}
	if a.Kind != model.KindCustom {
		return model.FrequencyOf(a.Kind)
	}
	rule := model.CustomRule{Unit: a.Unit, Interval: a.Interval, Weekdays: a.Weekdays}
	if err := rule.Validate(); err != nil {
		return model.Frequency{}, err
	}
	return model.Custom(rule), nil
}

type UntilArgs struct {
	Never bool
	Date  model.Date
}

func (a UntilArgs) EndRepeat() model.EndRepeat {
	if a.Never {
		return model.EndNever()
	}
	return model.EndOn(a.Date)
}

// GotoArgs is an absolute date, the literal "today", or a day offset from
// the date currently shown.
type GotoArgs struct {
	Today  bool
	Date   model.Date
	Offset int
}

func (a GotoArgs) Resolve(current, today model.Date) model.Date {
	switch {
	case a.Today:
		return today
	case !a.Date.IsZero():
		return a.Date
	default:
		return current.AddDays(a.Offset)
	}
}

type Command struct {
	Type  Type
	Raw   string
	Name  *NameArgs
	Freq  *FreqArgs
	Until *UntilArgs
	Goto  *GotoArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(strings.TrimPrefix(raw, "/"))
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]

	switch Type(head) {
	case TypeHabit, TypeRoutine, TypeItem, TypeRename:
		return parseName(input, Type(head), args)
	case TypeFreq:
		return parseFreq(input, args)
	case TypeUntil:
		return parseUntil(input, args)
	case TypeGoto:
		return parseGoto(input, args)
	case TypeDelete:
		if len(args) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "delete takes no arguments"}
		}
		return Command{Type: TypeDelete, Raw: input}, nil
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func parseName(raw string, typ Type, args []string) (Command, error) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s requires a name", typ)}
	}
	return Command{Type: typ, Raw: raw, Name: &NameArgs{Name: name}}, nil
}

// parseFreq accepts:
//
//	freq daily|weekly|biweekly|monthly|yearly|never
//	freq custom <n> <unit>
//	freq custom on mon,thu
//	freq every <n> <unit>
//	freq inherit
func parseFreq(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "freq requires a frequency"}
	}
	head := strings.ToLower(args[0])
	rest := args[1:]

	if head == "inherit" {
		if len(rest) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "freq inherit takes no arguments"}
		}
		return Command{Type: TypeFreq, Raw: raw, Freq: &FreqArgs{Inherit: true}}, nil
	}
	if head == "every" {
		head = string(model.KindCustom)
	}

	kind, err := model.ParseFrequencyKind(head)
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	if kind != model.KindCustom {
		if len(rest) > 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("%s takes no arguments", kind)}
		}
		return Command{Type: TypeFreq, Raw: raw, Freq: &FreqArgs{Kind: kind}}, nil
	}

	out := &FreqArgs{Kind: model.KindCustom, Interval: 1, Unit: model.UnitWeek}
	switch {
	case len(rest) >= 1 && strings.EqualFold(rest[0], "on"):
		days, err := model.ParseWeekdays(strings.Join(rest[1:], ","))
		if err != nil || len(days) == 0 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "custom on requires weekdays like mon,thu"}
		}
		out.Weekdays = days
	case len(rest) == 2:
		n, err := strconv.Atoi(rest[0])
		if err != nil || n < 1 {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid interval: %s", rest[0])}
		}
		unit, err := model.ParseIntervalUnit(rest[1])
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
		}
		out.Interval, out.Unit = n, unit
	default:
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "custom requires <n> <unit> or on <weekdays>"}
	}
	return Command{Type: TypeFreq, Raw: raw, Freq: out}, nil
}

func parseUntil(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "until requires a date or never"}
	}
	if strings.EqualFold(args[0], "never") {
		return Command{Type: TypeUntil, Raw: raw, Until: &UntilArgs{Never: true}}, nil
	}
	d, err := model.ParseDate(args[0])
	if err != nil {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
	}
	return Command{Type: TypeUntil, Raw: raw, Until: &UntilArgs{Date: d}}, nil
}

func parseGoto(raw string, args []string) (Command, error) {
	if len(args) != 1 {
		return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: "goto requires a date, today, +N or -N"}
	}
	arg := strings.ToLower(args[0])
	switch {
	case arg == "today":
		return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Today: true}}, nil
	case strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-"):
		n, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("invalid offset: %s", arg)}
		}
		return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Offset: n}}, nil
	default:
		d, err := model.ParseDate(arg)
		if err != nil {
			return Command{}, &CommandError{Code: ErrCodeInvalidArgument, Message: err.Error()}
		}
		return Command{Type: TypeGoto, Raw: raw, Goto: &GotoArgs{Date: d}}, nil
	}
}
