//go:build unit

package commands_test

import (
	"context"
	"errors"
	"time"

	"homesit/internal/domain/booking"
	"homesit/internal/domain/points"
	"homesit/internal/infra"
	"homesit/internal/infra/db"
	"homesit/internal/usecase/shared"

	"github.com/google/uuid"
)

var errNoRows = errors.New("no rows in result set")

func notFoundErr(msg string) error {
	return infra.WrapRepoErr(msg, errNoRows, infra.KindNotFound)
}

// In-memory doubles for the unit-of-work ports. Each fake records its calls
// so tests can assert on the writes a command performed.

type fakeUoW struct {
	tx    *fakeTx
	reads *fakeReads
}

func newFakeUoW() *fakeUoW {
	reads := newFakeReads()
	return &fakeUoW{
		reads: reads,
		tx: &fakeTx{
			bookings:      &fakeBookingRepo{casResult: true, linkResult: shared.PaymentRefLink{Linked: true}},
			availability:  &fakeAvailability{},
			points:        &fakePoints{},
			conversations: &fakeConversations{},
			outbox:        &fakeOutbox{},
			reads:         reads,
		},
	}
}

func (u *fakeUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return fn(ctx, u.tx)
}

func (u *fakeUoW) WithDB(ctx context.Context, fn func(ctx context.Context, db db.DBTX) error) error {
	return fn(ctx, nil)
}

func (u *fakeUoW) Reads() shared.CommandReads { return u.reads }

type fakeTx struct {
	bookings      *fakeBookingRepo
	availability  *fakeAvailability
	points        *fakePoints
	conversations *fakeConversations
	outbox        *fakeOutbox
	reads         *fakeReads
}

func (t *fakeTx) Bookings() shared.BookingRepository           { return t.bookings }
func (t *fakeTx) Availability() shared.AvailabilityRepository  { return t.availability }
func (t *fakeTx) Points() shared.PointsRepository              { return t.points }
func (t *fakeTx) Conversations() shared.ConversationRepository { return t.conversations }
func (t *fakeTx) Outbox() shared.OutboxRepository              { return t.outbox }
func (t *fakeTx) Reads() shared.CommandReads                   { return t.reads }
func (t *fakeTx) DB() db.DBTX                                  { return nil }

type fakeReads struct {
	listings map[uuid.UUID]*shared.ListingSnapshot
	profiles map[uuid.UUID]*shared.ProfileSnapshot
	bookings map[uuid.UUID]*booking.Booking
	entries  map[uuid.UUID][]points.Entry
	overlap  bool

	listingErr error
	bookingErr error
	overlapErr error
	entriesErr error
}

func newFakeReads() *fakeReads {
	return &fakeReads{
		listings: map[uuid.UUID]*shared.ListingSnapshot{},
		profiles: map[uuid.UUID]*shared.ProfileSnapshot{},
		bookings: map[uuid.UUID]*booking.Booking{},
		entries:  map[uuid.UUID][]points.Entry{},
	}
}

func (r *fakeReads) BookingByID(_ context.Context, id uuid.UUID) (*booking.Booking, error) {
	if r.bookingErr != nil {
		return nil, r.bookingErr
	}
	b, ok := r.bookings[id]
	if !ok {
		return nil, notFoundErr("booking not found")
	}
	return b, nil
}

func (r *fakeReads) ListingByID(_ context.Context, id uuid.UUID) (*shared.ListingSnapshot, error) {
	if r.listingErr != nil {
		return nil, r.listingErr
	}
	l, ok := r.listings[id]
	if !ok {
		return nil, notFoundErr("listing not found")
	}
	return l, nil
}

func (r *fakeReads) ProfileByID(_ context.Context, id uuid.UUID) (*shared.ProfileSnapshot, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, notFoundErr("profile not found")
	}
	return p, nil
}

func (r *fakeReads) PointsEntries(_ context.Context, userID uuid.UUID) ([]points.Entry, error) {
	if r.entriesErr != nil {
		return nil, r.entriesErr
	}
	return r.entries[userID], nil
}

func (r *fakeReads) HasActiveOverlap(_ context.Context, _ uuid.UUID, _ booking.DateRange) (bool, error) {
	if r.overlapErr != nil {
		return false, r.overlapErr
	}
	return r.overlap, nil
}

type casCall struct {
	id       uuid.UUID
	expected booking.Status
	patch    shared.StatusPatch
}

type applyCall struct {
	id            uuid.UUID
	pointsToApply int64
	cashDue       int64
}

type stampCall struct {
	id          uuid.UUID
	ref, method string
}

type fakeBookingRepo struct {
	createID  uuid.UUID
	createErr error
	created   []*booking.Booking

	casResult bool
	casErr    error
	casCalls  []casCall

	backfillCalls  int
	backfillQuotes []booking.FeeQuote
	backfillErr    error

	applyResult shared.ApplyPaymentResult
	applyErr    error
	applyCalls  []applyCall

	linkResult shared.PaymentRefLink
	linkErr    error
	linkCalls  []string

	stampCalls []stampCall
	stampErr   error

	patchResult bool
	patchErr    error
	patchCalls  []booking.PaymentStatus
}

func (r *fakeBookingRepo) Create(_ context.Context, b *booking.Booking) (uuid.UUID, error) {
	if r.createErr != nil {
		return uuid.Nil, r.createErr
	}
	r.created = append(r.created, b)
	if r.createID == uuid.Nil {
		r.createID = b.ID()
	}
	return r.createID, nil
}

func (r *fakeBookingRepo) UpdateStatusCAS(_ context.Context, id uuid.UUID, expected booking.Status, patch shared.StatusPatch) (bool, error) {
	r.casCalls = append(r.casCalls, casCall{id: id, expected: expected, patch: patch})
	return r.casResult, r.casErr
}

func (r *fakeBookingRepo) BackfillFeeSnapshot(_ context.Context, _ uuid.UUID, quote booking.FeeQuote, _ int64) error {
	r.backfillCalls++
	r.backfillQuotes = append(r.backfillQuotes, quote)
	return r.backfillErr
}

func (r *fakeBookingRepo) ApplyPayment(_ context.Context, id uuid.UUID, pointsToApply, cashDue int64) (shared.ApplyPaymentResult, error) {
	r.applyCalls = append(r.applyCalls, applyCall{id: id, pointsToApply: pointsToApply, cashDue: cashDue})
	return r.applyResult, r.applyErr
}

func (r *fakeBookingRepo) LinkPaymentRef(_ context.Context, _ uuid.UUID, ref string) (shared.PaymentRefLink, error) {
	r.linkCalls = append(r.linkCalls, ref)
	return r.linkResult, r.linkErr
}

func (r *fakeBookingRepo) StampPayment(_ context.Context, id uuid.UUID, ref, method string) error {
	r.stampCalls = append(r.stampCalls, stampCall{id: id, ref: ref, method: method})
	return r.stampErr
}

func (r *fakeBookingRepo) PatchPaymentStatus(_ context.Context, _ uuid.UUID, to booking.PaymentStatus) (bool, error) {
	r.patchCalls = append(r.patchCalls, to)
	return r.patchResult, r.patchErr
}

type availCall struct {
	listingID uuid.UUID
	dates     booking.DateRange
	booked    bool
}

type fakeAvailability struct {
	calls []availCall
	err   error
}

func (a *fakeAvailability) SetBooked(_ context.Context, listingID uuid.UUID, dates booking.DateRange, booked bool) error {
	a.calls = append(a.calls, availCall{listingID: listingID, dates: dates, booked: booked})
	return a.err
}

type fakePoints struct {
	entries []points.Entry
	err     error
}

func (p *fakePoints) Append(_ context.Context, entry points.Entry) error {
	if p.err != nil {
		return p.err
	}
	p.entries = append(p.entries, entry)
	return nil
}

type fakeConversations struct {
	calls int
	err   error
}

func (c *fakeConversations) Ensure(_ context.Context, _, _, _ uuid.UUID) (uuid.UUID, error) {
	c.calls++
	return uuid.New(), c.err
}

type outboxJob struct {
	kind, topic string
	payload     []byte
}

type fakeOutbox struct {
	jobs []outboxJob
	err  error
}

func (o *fakeOutbox) Enqueue(_ context.Context, kind, topic string, payload []byte, _ time.Time) error {
	if o.err != nil {
		return o.err
	}
	o.jobs = append(o.jobs, outboxJob{kind: kind, topic: topic, payload: payload})
	return nil
}

func (o *fakeOutbox) byKind(kind string) []outboxJob {
	var out []outboxJob
	for _, j := range o.jobs {
		if j.kind == kind {
			out = append(out, j)
		}
	}
	return out
}

type fakeEvents struct {
	reserveErr error
	reserved   []string
	released   []string
}

func (e *fakeEvents) Reserve(_ context.Context, eventID, _ string, _ []byte) error {
	if e.reserveErr != nil {
		return e.reserveErr
	}
	e.reserved = append(e.reserved, eventID)
	return nil
}

func (e *fakeEvents) Release(_ context.Context, eventID string) error {
	e.released = append(e.released, eventID)
	return nil
}
