package families

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/ports/notify"
)

type testRepo struct {
	families map[string]Family
	members  map[string]Member
}

func newTestRepo() *testRepo {
	return &testRepo{families: map[string]Family{}, members: map[string]Member{}}
}

func (r *testRepo) CreateFamily(ctx context.Context, f Family) error {
	r.families[f.ID] = f
	return nil
}

func (r *testRepo) GetFamily(ctx context.Context, id string) (Family, error) {
	f, ok := r.families[id]
	if !ok {
		return Family{}, ErrNotFound
	}
	return f, nil
}

func (r *testRepo) GetFamilyByOwner(ctx context.Context, ownerUserID string) (Family, error) {
	for _, f := range r.families {
		if f.OwnerUserID == ownerUserID {
			return f, nil
		}
	}
	return Family{}, ErrNotFound
}

func (r *testRepo) CreateMember(ctx context.Context, m Member) error {
	r.members[m.ID] = m
	return nil
}

func (r *testRepo) UpdateMember(ctx context.Context, m Member) error {
	if _, ok := r.members[m.ID]; !ok {
		return ErrNotFound
	}
	r.members[m.ID] = m
	return nil
}

func (r *testRepo) GetMember(ctx context.Context, id string) (Member, error) {
	m, ok := r.members[id]
	if !ok {
		return Member{}, ErrNotFound
	}
	return m, nil
}

func (r *testRepo) ListMembers(ctx context.Context, familyID string) ([]Member, error) {
	out := make([]Member, 0)
	for _, m := range r.members {
		if m.FamilyID == familyID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *testRepo) ListMembershipsByUser(ctx context.Context, userID string) ([]Member, error) {
	out := make([]Member, 0)
	for _, m := range r.members {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeOTP emite siempre "123456" y acepta cada código una sola vez.
type fakeOTP struct {
	issued map[string]string
	err    error
}

func (f *fakeOTP) Request(ctx context.Context, phone string, purpose otp.Purpose) (otp.Issued, error) {
	if f.err != nil {
		return otp.Issued{}, f.err
	}
	f.issued[phone] = "123456"
	return otp.Issued{Code: "123456", ExpiresInMinutes: 10}, nil
}

func (f *fakeOTP) Validate(ctx context.Context, phone, code string, purpose otp.Purpose) (otp.OTP, error) {
	if f.issued[phone] == "" || f.issued[phone] != code {
		return otp.OTP{}, otp.ErrInvalidOTP
	}
	delete(f.issued, phone)
	return otp.OTP{Phone: phone, Purpose: purpose, IsUsed: true}, nil
}

type phoneBook map[string]string

func (p phoneBook) PhoneOf(ctx context.Context, userID string) (string, error) {
	return p[userID], nil
}

type fixture struct {
	svc   *Service
	repo  *testRepo
	otps  *fakeOTP
	sent  []string
	owner Family
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	fx := &fixture{repo: newTestRepo(), otps: &fakeOTP{issued: map[string]string{}}}
	phones := phoneBook{
		"owner-1":  "+5491100000001",
		"sister-1": "+5491100000002",
	}
	sender := notify.SenderFunc(func(ctx context.Context, destination, message string) error {
		fx.sent = append(fx.sent, destination)
		return nil
	})

	fx.svc = NewService(fx.repo, fx.otps, phones, sender)
	fx.svc.now = func() time.Time { return time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC) }

	f, err := fx.svc.Create(context.Background(), "owner-1", "Los Pérez")
	if err != nil {
		t.Fatalf("Create family: %v", err)
	}
	fx.owner = f
	return fx
}

func TestService_Create_OnePerOwner(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.svc.Create(context.Background(), "owner-1", "Otra"); !errors.Is(err, ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestService_InviteAndJoin(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	m, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+54 9 11 0000 0002", AccessLevel: AccessFull})
	if err != nil {
		t.Fatalf("Invite error: %v", err)
	}
	if m.Status != MemberInvited || m.Phone != "+5491100000002" {
		t.Fatalf("unexpected member: %#v", m)
	}
	if len(fx.sent) != 1 || fx.sent[0] != "+5491100000002" {
		t.Fatalf("expected one sms to the invitee, got %#v", fx.sent)
	}

	if _, err := fx.svc.Join(ctx, fx.owner.ID, "sister-1", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}

	joined, err := fx.svc.Join(ctx, fx.owner.ID, "sister-1", "123456")
	if err != nil {
		t.Fatalf("Join error: %v", err)
	}
	if joined.Status != MemberActive || joined.UserID != "sister-1" || joined.JoinedAt == nil {
		t.Fatalf("unexpected joined member: %#v", joined)
	}

	got, err := fx.svc.ActiveMembership(ctx, "owner-1", "sister-1")
	if err != nil || got.AccessLevel != AccessFull {
		t.Fatalf("ActiveMembership = %#v, %v", got, err)
	}

	owners, err := fx.svc.OwnersSharingWith(ctx, "sister-1")
	if err != nil || len(owners) != 1 || owners[0] != "owner-1" {
		t.Fatalf("OwnersSharingWith = %#v, %v", owners, err)
	}

	// re-invitar a un miembro activo
	if _, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002"}); !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestService_Invite_ReinviteUpdatesPendingMember(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002"})
	if err != nil {
		t.Fatalf("Invite #1: %v", err)
	}
	if first.AccessLevel != AccessReadOnly {
		t.Fatalf("expected default read_only, got %s", first.AccessLevel)
	}

	second, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002", AccessLevel: AccessFull})
	if err != nil {
		t.Fatalf("Invite #2: %v", err)
	}
	if second.ID != first.ID || second.AccessLevel != AccessFull {
		t.Fatalf("expected same member updated, got %#v", second)
	}
	if len(fx.repo.members) != 1 {
		t.Fatalf("expected 1 member, got %d", len(fx.repo.members))
	}
}

func TestService_Invite_Rejections(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	if _, err := fx.svc.Invite(ctx, fx.owner.ID, "intruder", InviteInput{Phone: "+5491100000002"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000001"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("owner inviting self: expected ErrInvalidInput, got %v", err)
	}
	if _, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002", AccessLevel: "admin"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("bad level: expected ErrInvalidInput, got %v", err)
	}

	fx.otps.err = otp.ErrRateLimited
	if _, err := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000003"}); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestService_Invite_DeliveryFailureIsNotFatal(t *testing.T) {
	fx := newFixture(t)
	fx.svc.sender = notify.SenderFunc(func(ctx context.Context, destination, message string) error {
		return errors.New("sms provider down")
	})

	if _, err := fx.svc.Invite(context.Background(), fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002"}); err != nil {
		t.Fatalf("delivery failure must not fail the invite: %v", err)
	}
}

func TestService_RemoveMember_RevokesMembership(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	m, _ := fx.svc.Invite(ctx, fx.owner.ID, "owner-1", InviteInput{Phone: "+5491100000002"})
	if _, err := fx.svc.Join(ctx, fx.owner.ID, "sister-1", "123456"); err != nil {
		t.Fatalf("Join error: %v", err)
	}

	if _, err := fx.svc.RemoveMember(ctx, fx.owner.ID, "owner-1", m.ID); err != nil {
		t.Fatalf("RemoveMember error: %v", err)
	}
	if _, err := fx.svc.RemoveMember(ctx, fx.owner.ID, "owner-1", m.ID); err != nil {
		t.Fatalf("RemoveMember must be idempotent: %v", err)
	}

	if _, err := fx.svc.ActiveMembership(ctx, "owner-1", "sister-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after removal, got %v", err)
	}
	if _, err := fx.svc.ListMembers(ctx, fx.owner.ID, "sister-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("removed member must not list, got %v", err)
	}
}
