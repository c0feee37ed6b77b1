package sessions

import (
	"context"
	"errors"
	"testing"
	"time"

	"pet-health-records/internal/domain/otp"
	"pet-health-records/internal/domain/users"
	"pet-health-records/internal/ports/auth"
	"pet-health-records/internal/ports/notify"
)

type fakeOTP struct {
	code    string
	purpose otp.Purpose
	phone   string
	used    bool
	limited bool
}

func (f *fakeOTP) Request(ctx context.Context, phone string, purpose otp.Purpose) (otp.Issued, error) {
	if f.limited {
		return otp.Issued{}, otp.ErrRateLimited
	}
	f.used = false
	f.purpose = purpose
	f.phone = phone
	return otp.Issued{OTP: otp.OTP{ID: "otp-1", Phone: phone, Purpose: purpose}, Code: f.code, ExpiresInMinutes: 10}, nil
}

func (f *fakeOTP) Validate(ctx context.Context, phone, code string, purpose otp.Purpose) (otp.OTP, error) {
	if purpose != f.purpose || phone != f.phone || code != f.code || f.used {
		return otp.OTP{}, otp.ErrInvalidOTP
	}
	f.used = true
	return otp.OTP{ID: "otp-1"}, nil
}

type fakeAccounts struct {
	byPhone map[string]users.User
}

func (a *fakeAccounts) GetByPhone(ctx context.Context, phone string) (users.User, error) {
	u, ok := a.byPhone[phone]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return u, nil
}

func (a *fakeAccounts) SetVerifiedPhone(ctx context.Context, userID, phone string) (users.User, error) {
	if other, ok := a.byPhone[phone]; ok && other.ID != userID {
		return users.User{}, users.ErrPhoneTaken
	}
	for p, u := range a.byPhone {
		if u.ID == userID {
			delete(a.byPhone, p)
		}
	}
	u := users.User{ID: userID, Name: phone, Phone: phone}
	a.byPhone[phone] = u
	return u, nil
}

type fakeTokens struct{}

func (fakeTokens) Issue(ctx context.Context, c auth.Claims) (string, time.Time, error) {
	return "token-for-" + c.UserID, time.Now().Add(time.Hour), nil
}

func newTestService() (*Service, *fakeOTP, *fakeAccounts, *[]string) {
	o := &fakeOTP{code: "123456"}
	acc := &fakeAccounts{byPhone: map[string]users.User{}}
	sent := []string{}
	svc := NewService(o, acc, fakeTokens{}, notify.SenderFunc(func(ctx context.Context, d, m string) error {
		sent = append(sent, d)
		return nil
	}))
	svc.newID = func() string { return "new-user" }
	return svc, o, acc, &sent
}

func TestLogin_FirstTimeCreatesAccount(t *testing.T) {
	svc, _, acc, sent := newTestService()
	ctx := context.Background()

	if _, err := svc.RequestLogin(ctx, "+54 9 11 5555-0001"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(*sent) != 1 || (*sent)[0] != "+5491155550001" {
		t.Fatalf("expected sms to normalized phone, got %v", *sent)
	}

	sess, err := svc.VerifyLogin(ctx, "+5491155550001", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !sess.Created || sess.User.ID != "new-user" || sess.Token != "token-for-new-user" {
		t.Fatalf("unexpected session: %+v", sess)
	}
	if _, ok := acc.byPhone["+5491155550001"]; !ok {
		t.Fatalf("account not created")
	}
}

func TestLogin_ExistingAccount(t *testing.T) {
	svc, _, acc, _ := newTestService()
	acc.byPhone["+5491155550001"] = users.User{ID: "u-1", Phone: "+5491155550001"}

	_, _ = svc.RequestLogin(context.Background(), "+5491155550001")
	sess, err := svc.VerifyLogin(context.Background(), "+5491155550001", "123456")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sess.Created || sess.User.ID != "u-1" {
		t.Fatalf("unexpected session: %+v", sess)
	}
}

func TestLogin_Rejections(t *testing.T) {
	svc, o, _, _ := newTestService()
	ctx := context.Background()

	if _, err := svc.RequestLogin(ctx, "not-a-phone"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, _ = svc.RequestLogin(ctx, "+5491155550001")
	if _, err := svc.VerifyLogin(ctx, "+5491155550001", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	if _, err := svc.VerifyLogin(ctx, "+5491155550001", "123456"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if _, err := svc.VerifyLogin(ctx, "+5491155550001", "123456"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP on reuse, got %v", err)
	}

	o.limited = true
	if _, err := svc.RequestLogin(ctx, "+5491155550001"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestPhoneChange_RequiresOTPOnNewNumber(t *testing.T) {
	svc, _, acc, sent := newTestService()
	ctx := context.Background()
	acc.byPhone["+5491155550001"] = users.User{ID: "u-1", Phone: "+5491155550001"}

	if _, err := svc.RequestPhoneChange(ctx, "u-1", "+54 9 11 5555-0002"); err != nil {
		t.Fatalf("request: %v", err)
	}
	if len(*sent) != 1 || (*sent)[0] != "+5491155550002" {
		t.Fatalf("expected sms to the new phone, got %v", *sent)
	}
	if _, ok := acc.byPhone["+5491155550002"]; ok {
		t.Fatalf("phone must not change before confirmation")
	}

	if _, err := svc.ConfirmPhoneChange(ctx, "u-1", "+5491155550002", "000000"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
	u, err := svc.ConfirmPhoneChange(ctx, "u-1", "+5491155550002", "123456")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if u.Phone != "+5491155550002" {
		t.Fatalf("unexpected user: %+v", u)
	}
	if _, ok := acc.byPhone["+5491155550001"]; ok {
		t.Fatalf("old phone still mapped")
	}
}

func TestPhoneChange_LoginCodeDoesNotConfirmPhone(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	_, _ = svc.RequestLogin(ctx, "+5491155550002")
	if _, err := svc.ConfirmPhoneChange(ctx, "u-1", "+5491155550002", "123456"); !errors.Is(err, ErrInvalidOTP) {
		t.Fatalf("expected ErrInvalidOTP, got %v", err)
	}
}

func TestPhoneChange_TakenPhone(t *testing.T) {
	svc, _, acc, sent := newTestService()
	acc.byPhone["+5491155550001"] = users.User{ID: "victim", Phone: "+5491155550001"}

	if _, err := svc.RequestPhoneChange(context.Background(), "attacker", "+5491155550001"); !errors.Is(err, ErrPhoneTaken) {
		t.Fatalf("expected ErrPhoneTaken, got %v", err)
	}
	if len(*sent) != 0 {
		t.Fatalf("no otp must be sent, got %v", *sent)
	}
}
