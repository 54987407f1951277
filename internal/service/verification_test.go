package service_test

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brickfund/platform/internal/model"
	"github.com/brickfund/platform/internal/onboarding"
	"github.com/brickfund/platform/internal/repository"
	"github.com/brickfund/platform/internal/service"
	"github.com/brickfund/platform/internal/testutil"
)

func TestHandoffLinkIsStable(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")

	first, err := f.verification.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(first.VerificationURL, testAppURL+"/verify-identity/") {
		t.Errorf("verification URL = %q", first.VerificationURL)
	}

	qr, err := url.Parse(first.QRURL)
	if err != nil {
		t.Fatal(err)
	}
	if qr.Query().Get("data") != first.VerificationURL || qr.Query().Get("size") != "240x240" {
		t.Errorf("qr URL = %q", first.QRURL)
	}

	second, err := f.verification.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if second.Token != first.Token {
		t.Errorf("token changed between calls: %q then %q", first.Token, second.Token)
	}
}

func TestHandoffLinkConcurrentFirstRequests(t *testing.T) {
	f := newFixture(t, false)
	user := f.registerVerified(t, "Ana", "ana@x.com")

	const n = 8
	tokens := make([]string, n)
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := f.verification.HandoffLink(context.Background(), user.ID)
			errs[i] = err
			if err == nil {
				tokens[i] = h.Token
			}
		}()
	}
	wg.Wait()

	for i := range n {
		if errs[i] != nil {
			t.Fatalf("call %d: %v", i, errs[i])
		}
		if tokens[i] != tokens[0] {
			t.Fatalf("call %d got token %q, call 0 got %q", i, tokens[i], tokens[0])
		}
	}
}

func TestHandoffLinkUserGone(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.verification.HandoffLink(context.Background(), "missing")
	if !errors.Is(err, repository.ErrUserNotFound) {
		t.Errorf("err = %v, want ErrUserNotFound", err)
	}
}

func TestUploadIdentityInline(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")
	h, err := f.verification.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	res, err := f.verification.UploadIdentity(ctx, service.UploadInput{Token: h.Token, Side: model.SideFront, ImageData: testutil.PNGDataURI()})
	if err != nil {
		t.Fatalf("front: %v", err)
	}
	if res.IdentityVerified {
		t.Error("identity verified after one side")
	}

	res, err = f.verification.UploadIdentity(ctx, service.UploadInput{Token: h.Token, Side: model.SideBack, ImageData: testutil.JPEGDataURI()})
	if err != nil {
		t.Fatalf("back: %v", err)
	}
	if !res.IdentityVerified {
		t.Error("identity not verified after both sides")
	}

	stored, err := f.repo.ByID(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.IDFrontImage != testutil.PNGDataURI() || stored.IDBackImage != testutil.JPEGDataURI() {
		t.Error("images were not stored inline")
	}
}

func TestUploadIdentityObjectStorage(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")
	h, err := f.verification.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	upload := func(data string) string {
		t.Helper()
		_, err := f.verification.UploadIdentity(ctx, service.UploadInput{Token: h.Token, Side: model.SideFront, ImageData: data})
		if err != nil {
			t.Fatalf("upload: %v", err)
		}
		stored, err := f.repo.ByID(ctx, user.ID)
		if err != nil {
			t.Fatal(err)
		}
		return stored.IDFrontImage
	}

	firstKey := upload(testutil.PNGDataURI())
	wantPrefix := "private/identity/" + user.ID + "/front-"
	if !strings.HasPrefix(firstKey, wantPrefix) || !strings.HasSuffix(firstKey, ".png") {
		t.Fatalf("key = %q, want %s<uuid>.png", firstKey, wantPrefix)
	}
	if f.storage.Types[firstKey] != "image/png" {
		t.Errorf("content type = %q", f.storage.Types[firstKey])
	}

	// Re-uploading the same side replaces the object
	secondKey := upload(testutil.JPEGDataURI())
	if secondKey == firstKey || !strings.HasSuffix(secondKey, ".jpg") {
		t.Fatalf("second key = %q", secondKey)
	}
	if _, ok := f.storage.Objects[firstKey]; ok {
		t.Error("previous object was not deleted")
	}
	if f.storage.Len() != 1 {
		t.Errorf("stored objects = %d, want 1", f.storage.Len())
	}

	profile, err := f.users.Profile(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(profile.IDFrontImage, "https://storage.test/") {
		t.Errorf("profile image = %q, want presigned URL", profile.IDFrontImage)
	}
}

func TestUploadIdentityErrors(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")
	h, err := f.verification.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		in        service.UploadInput
		wantValid bool
		want      error
	}{
		{"missing token", service.UploadInput{Side: "front", ImageData: testutil.PNGDataURI()}, true, nil},
		{"bad side", service.UploadInput{Token: h.Token, Side: "left", ImageData: testutil.PNGDataURI()}, true, nil},
		{"not an image", service.UploadInput{Token: h.Token, Side: "front", ImageData: "data:text/plain;base64,aGVsbG8="}, true, nil},
		{"unknown token", service.UploadInput{Token: "nope", Side: "front", ImageData: testutil.PNGDataURI()}, false, service.ErrInvalidHandoffToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.verification.UploadIdentity(ctx, tt.in)
			if tt.wantValid {
				if !isValidationError(err) {
					t.Errorf("err = %v, want ValidationError", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestHandoffTokenTTL(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")

	svc := service.NewVerificationService(f.repo, nil, service.VerificationConfig{
		AppURL:      testAppURL,
		QRRenderURL: "https://qr.test/render",
		TokenTTL:    time.Minute,
	})

	// Issue a token stamped two minutes ago
	issuedAt := time.Now().UTC().Add(-2 * time.Minute)
	ok, err := f.repo.SetHandoffToken(ctx, user.ID, "old-token", issuedAt, nil)
	if err != nil || !ok {
		t.Fatalf("seed token: ok=%v err=%v", ok, err)
	}

	_, err = svc.ResolveToken(ctx, "old-token")
	if !errors.Is(err, service.ErrInvalidHandoffToken) {
		t.Fatalf("expired token: err = %v, want ErrInvalidHandoffToken", err)
	}

	h, err := svc.HandoffLink(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if h.Token == "old-token" {
		t.Fatal("expired token was not rotated")
	}

	_, err = svc.ResolveToken(ctx, h.Token)
	if err != nil {
		t.Errorf("fresh token: %v", err)
	}
}

func TestOnboardingState(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")

	state, err := f.verification.Onboarding(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Current != onboarding.StepIdentity || state.IdentityVerified {
		t.Errorf("state = %+v", state)
	}

	err = f.repo.Update(ctx, user.ID, repository.UserUpdate{
		IDFrontImage: ptr(testutil.PNGDataURI()),
		IDBackImage:  ptr(testutil.PNGDataURI()),
	})
	if err != nil {
		t.Fatal(err)
	}

	state, err = f.verification.Onboarding(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if state.Current != onboarding.StepBasicInfo || !state.IdentityVerified {
		t.Errorf("state = %+v", state)
	}
}

func TestWaitForIdentity(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()
	user := f.registerVerified(t, "Ana", "ana@x.com")

	// Nothing uploaded: returns the current state once the wait bound passes
	start := time.Now()
	state, err := f.verification.WaitForIdentity(ctx, user.ID)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if state.IdentityVerified {
		t.Error("identity verified without uploads")
	}
	if time.Since(start) < 100*time.Millisecond {
		t.Error("returned before the wait bound")
	}

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = f.repo.Update(context.Background(), user.ID, repository.UserUpdate{
			IDFrontImage: ptr(testutil.PNGDataURI()),
			IDBackImage:  ptr(testutil.PNGDataURI()),
		})
	}()

	state, err = f.verification.WaitForIdentity(ctx, user.ID)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !state.IdentityVerified {
		t.Error("wait ended without seeing the uploads")
	}
}
