package service

import (
	"context"
	"strings"
	"time"

	"github.com/fjod/go_cart/order-pricing/domain"
	"github.com/fjod/go_cart/order-pricing/internal/ordertoken"
	"github.com/fjod/go_cart/order-pricing/internal/publisher"
	"github.com/fjod/go_cart/order-pricing/internal/replay"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type CheckoutService interface {
	Prepare(ctx context.Context, request *domain.PrepareRequest) (*domain.PrepareResponse, error)
	Intent(ctx context.Context, request *domain.IntentRequest) (*domain.PaymentIntent, error)
}

type CartFinder interface {
	GetActiveCart(ctx context.Context, sessionID string, hubID int64) (*domain.Cart, error)
	GetCart(ctx context.Context, cartID int64) (*domain.Cart, error)
}

type TotalsCalculator interface {
	Compute(ctx context.Context, cartID int64) (domain.TotalsBreakdown, error)
}

type TokenCodec interface {
	Mint(cartID int64, sessionID string) (string, error)
	Verify(token string, cartID int64, sessionID string) (*ordertoken.Payload, error)
}

type CheckoutServiceImpl struct {
	carts     CartFinder
	totals    TotalsCalculator
	tokens    TokenCodec
	ledger    replay.Ledger
	publisher publisher.IntentPublisher
	now       func() time.Time
	log       zerolog.Logger
}

type Option func(*CheckoutServiceImpl)

// WithLedger makes order tokens single use.
func WithLedger(l replay.Ledger) Option {
	return func(s *CheckoutServiceImpl) {
		s.ledger = l
	}
}

func WithPublisher(p publisher.IntentPublisher) Option {
	return func(s *CheckoutServiceImpl) {
		s.publisher = p
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *CheckoutServiceImpl) {
		s.now = now
	}
}

func WithLogger(log zerolog.Logger) Option {
	return func(s *CheckoutServiceImpl) {
		s.log = log
	}
}

func NewCheckoutService(carts CartFinder, calc TotalsCalculator, tokens TokenCodec, opts ...Option) *CheckoutServiceImpl {
	s := &CheckoutServiceImpl{
		carts:  carts,
		totals: calc,
		tokens: tokens,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// attempt follows one checkout through its states for logging.
type attempt struct {
	log   zerolog.Logger
	state domain.CheckoutState
}

func (s *CheckoutServiceImpl) begin(ctx context.Context, op string, state domain.CheckoutState) *attempt {
	return &attempt{
		log:   s.log.With().Ctx(ctx).Str("op", op).Logger(),
		state: state,
	}
}

func (a *attempt) moveTo(to domain.CheckoutState) error {
	if !domain.CanTransitionTo(a.state, to) {
		a.log.Error().Str("from", a.state.String()).Str("to", to.String()).Msg("illegal checkout transition")
		return ErrIllegalTransition
	}
	a.log.Debug().Str("from", a.state.String()).Str("to", to.String()).Msg("checkout transition")
	a.state = to
	return nil
}

// fail moves the attempt to FAILED and returns err unchanged. The
// detail goes to the log; callers only see the kind.
func (a *attempt) fail(err error) error {
	_ = a.moveTo(domain.CheckoutStateFailed)
	a.log.Warn().Err(err).Msg("checkout failed")
	return err
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func newIntentID() string {
	return "pi_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
