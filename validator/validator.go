// Package validator combines SAN parsing with a legality check against a position.
package validator

import (
	"context"
	"errors"
	"fmt"

	"termchess-local/notation"
	"termchess-local/rules"
)

// LegalityError reports a syntactically valid move that could not be confirmed legal.
type LegalityError struct {
	Token  string
	Reason string
	// BadPosition is set when the position itself could not be loaded.
	BadPosition bool
	Err         error
}

func (e *LegalityError) Error() string {
	return e.Reason
}

func (e *LegalityError) Unwrap() error { return e.Err }

// Result is the outcome of validating one token.
//
// Checked is true exactly when a position was supplied and the token parsed, i.e.
// when Legal carries an answer. Handle is non-nil exactly when Legal is true.
type Result struct {
	Move    notation.Move
	Valid   bool
	Checked bool
	Legal   bool
	Handle  rules.Handle
	Err     error
}

type Validator struct {
	oracle rules.Oracle
}

func New(oracle rules.Oracle) *Validator {
	return &Validator{oracle: oracle}
}

// Oracle returns the legality oracle the validator was built with.
func (v *Validator) Oracle() rules.Oracle {
	return v.oracle
}

// Validate parses token and, when fen is not empty, checks it against that position.
// Errors are reported in the Result, never returned or panicked.
func (v *Validator) Validate(token, fen string) Result {
	m, err := notation.Parse(token)
	if err != nil {
		return Result{Err: err}
	}
	res := Result{Move: m, Valid: true}
	if fen == "" {
		return res
	}
	res.Checked = true

	h, err := v.oracle.Check(m.Token, fen)
	if err != nil {
		res.Err = legalityErr(m.Token, err)
		return res
	}
	res.Legal = true
	res.Handle = h
	return res
}

// ValidateContext is Validate with a deadline on the oracle call. When ctx ends
// first the result is reported as a board validation error carrying ctx.Err().
func (v *Validator) ValidateContext(ctx context.Context, token, fen string) Result {
	if err := ctx.Err(); err != nil {
		return v.abandoned(token, fen, err)
	}
	done := make(chan Result, 1)
	go func() {
		done <- v.Validate(token, fen)
	}()
	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		return v.abandoned(token, fen, ctx.Err())
	}
}

func (v *Validator) abandoned(token, fen string, cause error) Result {
	res := v.Validate(token, "")
	if !res.Valid || fen == "" {
		return res
	}
	res.Checked = true
	res.Err = &LegalityError{
		Token:       res.Move.Token,
		Reason:      fmt.Sprintf("board validation error: %v", cause),
		BadPosition: true,
		Err:         cause,
	}
	return res
}

func legalityErr(token string, err error) *LegalityError {
	if errors.Is(err, rules.ErrIllegal) {
		return &LegalityError{
			Token:  token,
			Reason: fmt.Sprintf("move '%s' is not legal in current position", token),
			Err:    err,
		}
	}
	return &LegalityError{
		Token:       token,
		Reason:      fmt.Sprintf("board validation error: %v", err),
		BadPosition: true,
		Err:         err,
	}
}
