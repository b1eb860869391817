package quests

import "fmt"

// Stage error codes. They are part of the HTTP contract.
const (
	CodeSignalsFailed   = "signals_failed"
	CodeCatalogFailed   = "catalog_failed"
	CodeQuestSeedFailed = "quest_seed_failed"
	CodeQuestEvalFailed = "quest_eval_failed"
)

// StageError is a fatal pipeline failure tagged with a stable code.
type StageError struct {
	Code string
	Err  error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(code string, err error) *StageError {
	return &StageError{Code: code, Err: err}
}
