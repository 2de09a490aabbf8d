package otp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/amdadul/brandstore-crm/internal/api"
	"github.com/amdadul/brandstore-crm/internal/validate"
)

// Codes sent with every OTP request of the password flows.
const (
	PurposePasswordReset = 5
	CheckPlaceApp        = 1
)

// State is the position of a flow in the OTP handshake.
type State int

const (
	Idle State = iota
	AwaitingOtp
	Verified
	Committed
)

func (s State) String() string {
	switch s {
	case AwaitingOtp:
		return "awaiting_otp"
	case Verified:
		return "verified"
	case Committed:
		return "committed"
	default:
		return "idle"
	}
}

var (
	ErrWrongState    = errors.New("operation not allowed in current state")
	ErrNotVerified   = errors.New("otp has not been verified")
	ErrInvalidMedium = errors.New("stored phone number is not numeric")
	ErrBusy          = errors.New("another step is in progress")
)

// OtpAPI is the part of the API client the handshake needs.
type OtpAPI interface {
	SendOtp(ctx context.Context, req api.SendOtpRequest) api.Result[api.Ack]
	VerifyOtp(ctx context.Context, req api.VerifyOtpRequest) api.Result[api.Ack]
}

// Steps plugs a concrete mutation into the handshake. Only Phone, Medium and
// Commit are required.
type Steps[P any] struct {
	ValidateRequest func(P) error
	PreCheck        func(ctx context.Context, p P) error
	Phone           func(ctx context.Context, p P) (string, error)
	ValidateCommit  func(P) error
	Medium          func(ctx context.Context, p P) (string, error)
	Commit          func(ctx context.Context, p P) error
}

// Flow gates a mutation behind phone OTP verification. The mutation is never
// committed unless the OTP for the current handshake was accepted.
type Flow[P any] struct {
	api        OtpAPI
	steps      Steps[P]
	purpose    int
	checkPlace int

	mu    sync.Mutex
	state State
	busy  bool
}

func NewFlow[P any](client OtpAPI, steps Steps[P]) *Flow[P] {
	return &Flow[P]{
		api:        client,
		steps:      steps,
		purpose:    PurposePasswordReset,
		checkPlace: CheckPlaceApp,
	}
}

// WithCodes overrides the purpose and check-place codes.
func (f *Flow[P]) WithCodes(purpose, checkPlace int) *Flow[P] {
	f.purpose = purpose
	f.checkPlace = checkPlace
	return f
}

func (f *Flow[P]) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// Reset abandons the handshake.
func (f *Flow[P]) Reset() {
	f.mu.Lock()
	f.state = Idle
	f.mu.Unlock()
}

// RequestOtp validates the form, runs the pre-check and sends the OTP.
// On success the flow is AwaitingOtp; on any failure it stays Idle.
func (f *Flow[P]) RequestOtp(ctx context.Context, p P) error {
	if err := f.acquire(Idle); err != nil {
		return err
	}
	next := Idle
	defer func() { f.release(next) }()

	if f.steps.ValidateRequest != nil {
		if err := f.steps.ValidateRequest(p); err != nil {
			return err
		}
	}
	if f.steps.PreCheck != nil {
		if err := f.steps.PreCheck(ctx, p); err != nil {
			return err
		}
	}
	phone, err := f.steps.Phone(ctx, p)
	if err != nil {
		return err
	}

	res := f.api.SendOtp(ctx, api.SendOtpRequest{Phone: phone, Type: f.purpose, CheckPlace: f.checkPlace})
	if err := res.Err(); err != nil {
		log.Printf("Phone %s: send otp failed: %v", maskPhone(phone), err)
		return err
	}
	log.Printf("Phone %s: otp sent", maskPhone(phone))
	next = AwaitingOtp
	return nil
}

// Verify checks the OTP without committing. On success the flow is Verified.
func (f *Flow[P]) Verify(ctx context.Context, code string, p P) error {
	if err := f.acquire(AwaitingOtp); err != nil {
		return err
	}
	next := AwaitingOtp
	defer func() { f.release(next) }()

	if err := f.verify(ctx, code, p); err != nil {
		return err
	}
	next = Verified
	return nil
}

// Commit performs the mutation after a successful Verify.
func (f *Flow[P]) Commit(ctx context.Context, p P) error {
	if err := f.acquire(Verified); err != nil {
		if errors.Is(err, ErrWrongState) {
			return ErrNotVerified
		}
		return err
	}
	next := Verified
	defer func() { f.release(next) }()

	if f.steps.ValidateCommit != nil {
		if err := f.steps.ValidateCommit(p); err != nil {
			return err
		}
	}
	if err := f.commit(ctx, p); err != nil {
		return err
	}
	next = Committed
	return nil
}

// ConfirmAndCommit verifies the OTP and commits in one step. Any failure
// leaves the flow AwaitingOtp so the user can retry without a new code.
func (f *Flow[P]) ConfirmAndCommit(ctx context.Context, code string, p P) error {
	if err := f.acquire(AwaitingOtp); err != nil {
		return err
	}
	next := AwaitingOtp
	defer func() { f.release(next) }()

	if f.steps.ValidateCommit != nil {
		if err := f.steps.ValidateCommit(p); err != nil {
			return err
		}
	}
	if err := f.verify(ctx, code, p); err != nil {
		return err
	}
	if err := f.commit(ctx, p); err != nil {
		return err
	}
	next = Committed
	return nil
}

func (f *Flow[P]) verify(ctx context.Context, code string, p P) error {
	code = strings.TrimSpace(code)
	if err := validate.Otp(code); err != nil {
		return err
	}
	medium, err := f.steps.Medium(ctx, p)
	if err != nil {
		return err
	}
	res := f.api.VerifyOtp(ctx, api.VerifyOtpRequest{Medium: medium, Otp: code, Type: f.purpose, CheckPlace: f.checkPlace})
	if err := res.Err(); err != nil {
		log.Printf("Phone %s: otp verification failed: %v", maskPhone(medium), err)
		return err
	}
	return nil
}

func (f *Flow[P]) commit(ctx context.Context, p P) error {
	if err := f.steps.Commit(ctx, p); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (f *Flow[P]) acquire(want State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.busy {
		return ErrBusy
	}
	if f.state != want {
		return fmt.Errorf("%w: %s", ErrWrongState, f.state)
	}
	f.busy = true
	return nil
}

func (f *Flow[P]) release(next State) {
	f.mu.Lock()
	f.state = next
	f.busy = false
	f.mu.Unlock()
}

// maskPhone masks a phone number for logging (e.g., 01*******11)
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
