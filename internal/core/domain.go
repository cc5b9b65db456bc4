package core

import (
	"errors"
	"strings"
	"time"
)

type (
	EntryKind          string
	VerificationStatus string
	DoneStatus         string
	BetType            string
)

const (
	KindProfit     EntryKind = "profit"
	KindWithdrawal EntryKind = "withdrawal"
)

const (
	StatusVerified    VerificationStatus = "Verified"
	StatusPending     VerificationStatus = "Pending"
	StatusNotVerified VerificationStatus = "Not Verified"
)

const (
	DoneNo      DoneStatus = "No"
	DoneYesWon  DoneStatus = "Yes (Won)"
	DoneYesLost DoneStatus = "Yes (Lost)"
)

const (
	BetStandard BetType = "Standard Bet"
	BetFreebet  BetType = "Freebet"
)

const maxNameLength = 200

var (
	ErrInvalidAmount             = errors.New("invalid amount")
	ErrNegativeAmount            = errors.New("amount must not be negative")
	ErrNonPositiveAmount         = errors.New("amount must be greater than zero")
	ErrInvalidDate               = errors.New("invalid date")
	ErrInvalidMonth              = errors.New("invalid month")
	ErrInvalidEntryKind          = errors.New("invalid entry type: must be profit or withdrawal")
	ErrEmptyName                 = errors.New("empty name")
	ErrNameTooLong               = errors.New("name too long (max 200 characters)")
	ErrInvalidStake              = errors.New("fixed stake must be greater than zero")
	ErrInvalidBetType            = errors.New("invalid bet type: must be Standard Bet or Freebet")
	ErrInvalidVerificationStatus = errors.New("invalid verification status")
	ErrInvalidDoneStatus         = errors.New("invalid done status")
	ErrEmptyPatch                = errors.New("nothing to update")
)

type (
	// FinancialEntry is one day's profit and withdrawal for a user.
	// At most one entry exists per (user, date).
	FinancialEntry struct {
		ID         string `json:"id"`
		UserID     string `json:"user_id"`
		Date       Date   `json:"entry_date"`
		Profit     Money  `json:"profit"`
		Withdrawal Money  `json:"withdrawal"`
	}

	// EntryInput is a dated contribution before it is merged into storage.
	EntryInput struct {
		Date       Date  `json:"entry_date"`
		Profit     Money `json:"profit"`
		Withdrawal Money `json:"withdrawal"`
	}

	// FinancialSummary holds the user-set bankroll baseline.
	FinancialSummary struct {
		UserID   string `json:"user_id"`
		Bankroll Money  `json:"bankroll"`
	}

	VerificationAccount struct {
		ID                 string             `json:"id"`
		UserID             string             `json:"user_id"`
		Name               string             `json:"name"`
		VerificationStatus VerificationStatus `json:"verification_status"`
		DoneStatus         DoneStatus         `json:"done_status"`
		IsDeleted          bool               `json:"is_deleted"`
		CreatedAt          time.Time          `json:"created_at"`
	}

	// VerificationPatch carries the fields of a partial update; nil fields are left untouched.
	VerificationPatch struct {
		Name               *string             `json:"name,omitempty"`
		VerificationStatus *VerificationStatus `json:"verification_status,omitempty"`
		DoneStatus         *DoneStatus         `json:"done_status,omitempty"`
		IsDeleted          *bool               `json:"is_deleted,omitempty"`
	}

	BettingAccount struct {
		ID         string    `json:"id"`
		UserID     string    `json:"user_id"`
		Name       string    `json:"name"`
		FixedStake Money     `json:"fixed_stake_value"`
		CreatedAt  time.Time `json:"created_at"`
	}

	BettingOperation struct {
		ID        string    `json:"id"`
		AccountID string    `json:"account_id"`
		Orbit     Money     `json:"orbit_value"`
		Gain      Money     `json:"gain_value"`
		BetType   BetType   `json:"bet_type"`
		CreatedAt time.Time `json:"created_at"`
	}
)

// ParseEntryKind accepts "profit" or "withdrawal" in any case.
func ParseEntryKind(s string) (EntryKind, error) {
	switch EntryKind(strings.ToLower(strings.TrimSpace(s))) {
	case KindProfit:
		return KindProfit, nil
	case KindWithdrawal:
		return KindWithdrawal, nil
	}
	return "", ErrInvalidEntryKind
}

// ParseVerificationStatus accepts the display labels in any case.
func ParseVerificationStatus(s string) (VerificationStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "verified":
		return StatusVerified, nil
	case "pending":
		return StatusPending, nil
	case "not verified", "not_verified", "notverified":
		return StatusNotVerified, nil
	}
	return "", ErrInvalidVerificationStatus
}

// ParseDoneStatus accepts the English labels and the legacy Portuguese ones.
func ParseDoneStatus(s string) (DoneStatus, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "no", "not done":
		return DoneNo, nil
	case "yes (won)", "yes (ganha)", "won":
		return DoneYesWon, nil
	case "yes (lost)", "yes (perda)", "lost":
		return DoneYesLost, nil
	}
	return "", ErrInvalidDoneStatus
}

// ParseBetType accepts "Standard Bet"/"standard" and "Freebet"/"free bet".
func ParseBetType(s string) (BetType, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "")) {
	case "standardbet", "standard":
		return BetStandard, nil
	case "freebet":
		return BetFreebet, nil
	}
	return "", ErrInvalidBetType
}

// IsDone reports whether the status is any completed variant.
func (s DoneStatus) IsDone() bool {
	return s != DoneNo && s != ""
}

// Add returns a copy of the entry with amount added to the field of kind.
func (e FinancialEntry) Add(kind EntryKind, amount Money) FinancialEntry {
	switch kind {
	case KindProfit:
		e.Profit = e.Profit.Add(amount)
	case KindWithdrawal:
		e.Withdrawal = e.Withdrawal.Add(amount)
	}
	return e
}

// Merge adds both fields of in to the entry.
func (e FinancialEntry) Merge(in EntryInput) FinancialEntry {
	e.Profit = e.Profit.Add(in.Profit)
	e.Withdrawal = e.Withdrawal.Add(in.Withdrawal)
	return e
}

// NewEntryInput builds an input carrying amount in the field of kind.
func NewEntryInput(date Date, kind EntryKind, amount Money) EntryInput {
	in := EntryInput{Date: date}
	if kind == KindWithdrawal {
		in.Withdrawal = amount
	} else {
		in.Profit = amount
	}
	return in
}

func (in EntryInput) Validate() error {
	if in.Date.IsZero() {
		return ErrInvalidDate
	}
	if in.Profit.IsNegative() || in.Withdrawal.IsNegative() {
		return ErrNegativeAmount
	}
	return nil
}

// ValidateName trims and checks a display name.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyName
	}
	if len(name) > maxNameLength {
		return "", ErrNameTooLong
	}
	return name, nil
}

func (p VerificationPatch) Validate() error {
	if p.Name == nil && p.VerificationStatus == nil && p.DoneStatus == nil && p.IsDeleted == nil {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		if _, err := ValidateName(*p.Name); err != nil {
			return err
		}
	}
	if p.VerificationStatus != nil {
		if _, err := ParseVerificationStatus(string(*p.VerificationStatus)); err != nil {
			return err
		}
	}
	if p.DoneStatus != nil {
		if _, err := ParseDoneStatus(string(*p.DoneStatus)); err != nil {
			return err
		}
	}
	return nil
}

// Apply returns a copy of the account with the patch applied.
func (p VerificationPatch) Apply(a VerificationAccount) VerificationAccount {
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.VerificationStatus != nil {
		if s, err := ParseVerificationStatus(string(*p.VerificationStatus)); err == nil {
			a.VerificationStatus = s
		}
	}
	if p.DoneStatus != nil {
		if s, err := ParseDoneStatus(string(*p.DoneStatus)); err == nil {
			a.DoneStatus = s
		}
	}
	if p.IsDeleted != nil {
		a.IsDeleted = *p.IsDeleted
	}
	return a
}

func (a BettingAccount) Validate() error {
	if _, err := ValidateName(a.Name); err != nil {
		return err
	}
	if !a.FixedStake.IsPositive() {
		return ErrInvalidStake
	}
	return nil
}

func (o BettingOperation) Validate() error {
	if o.Orbit.IsNegative() || o.Gain.IsNegative() {
		return ErrNegativeAmount
	}
	if _, err := ParseBetType(string(o.BetType)); err != nil {
		return err
	}
	return nil
}
