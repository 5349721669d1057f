package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Habit   func(NameArgs) (Result, error)
	Routine func(NameArgs) (Result, error)
	Item    func(NameArgs) (Result, error)
	Rename  func(NameArgs) (Result, error)
	Freq    func(FreqArgs) (Result, error)
	Until   func(UntilArgs) (Result, error)
	Goto    func(GotoArgs) (Result, error)
	Delete  func() (Result, error)
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeHabit:
		return callName(cmd, handlers.Habit)
	case TypeRoutine:
		return callName(cmd, handlers.Routine)
	case TypeItem:
		return callName(cmd, handlers.Item)
	case TypeRename:
		return callName(cmd, handlers.Rename)
	case TypeFreq:
		if handlers.Freq == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Freq(*cmd.Freq)
	case TypeUntil:
		if handlers.Until == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Until(*cmd.Until)
	case TypeGoto:
		if handlers.Goto == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Goto(*cmd.Goto)
	case TypeDelete:
		if handlers.Delete == nil {
			return Result{}, missing(cmd.Type)
		}
		return handlers.Delete()
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}

func callName(cmd Command, fn func(NameArgs) (Result, error)) (Result, error) {
	if fn == nil {
		return Result{}, missing(cmd.Type)
	}
	return fn(*cmd.Name)
}

func missing(t Type) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: fmt.Sprintf("%s handler not configured", t)}
}
