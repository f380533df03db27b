package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/layer-3/custos/core"
	"github.com/layer-3/custos/ports"
)

const (
	// defaultMaxAttempts bounds TOKEN_READY → WALLET_REQUESTED passes
	// within one session.
	defaultMaxAttempts = 3

	// recoveryProbeTimeout bounds the detached fallback probe run when
	// the caller's context is already gone.
	recoveryProbeTimeout = 5 * time.Second
)

// ProvisioningService drives the wallet provisioning workflow against
// the custodial provider: identity bootstrap, token acquisition,
// wallet request, conditional challenge ceremony, confirmation. Wallet
// creation can silently succeed on the provider side even when the
// client-visible call times out, so ambiguous failures are resolved by
// querying the provider's wallet list — blind retry risks duplicate
// wallets, blind failure risks stranding a user who already has one.
type ProvisioningService struct {
	provider ports.Provider
	executor ports.ChallengeExecutor
	store    ports.CredentialStore
	eventPub ports.EventPublisher
	guard    *SessionGuard

	maxAttempts int
}

// NewProvisioningService creates a new provisioning service. eventPub
// may be nil when no event transport is wired.
func NewProvisioningService(
	provider ports.Provider,
	executor ports.ChallengeExecutor,
	store ports.CredentialStore,
	eventPub ports.EventPublisher,
) *ProvisioningService {
	return &ProvisioningService{
		provider:    provider,
		executor:    executor,
		store:       store,
		eventPub:    eventPub,
		guard:       NewSessionGuard(),
		maxAttempts: defaultMaxAttempts,
	}
}

// ProvisionWallet runs the workflow for the identity and returns the
// provisioned wallet. Repeated invocations once a wallet exists return
// the same wallet without issuing another creation call. A concurrent
// invocation for the same identity fails with
// core.ErrProvisioningInProgress.
func (s *ProvisioningService) ProvisionWallet(ctx context.Context, identity core.Identity) (*core.Wallet, error) {
	lease, err := s.guard.Acquire(identity)
	if err != nil {
		return nil, err
	}
	defer lease.Release()

	// A wallet that already exists is returned as is.
	if creds, err := s.store.Get(ctx, identity); err == nil && creds.Wallet != nil {
		return creds.Wallet, nil
	}

	// The store is rebuildable from the provider: a wiped record must
	// converge on the existing wallet, not mint a duplicate.
	if wallets, err := s.provider.ListUserWallets(ctx, identity); err == nil && len(wallets) > 0 {
		wallet := &wallets[0]
		if err := s.store.Put(ctx, identity, nil, wallet); err != nil {
			return nil, fmt.Errorf("persist credentials: %w", err)
		}
		return wallet, nil
	}

	session := &core.ProvisioningSession{
		ID:       uuid.New().String(),
		Identity: identity,
		State:    core.StateInit,
	}

	return s.run(ctx, session)
}

// Wallets returns the identity's wallets, preferring the persisted
// record and falling back to the provider.
func (s *ProvisioningService) Wallets(ctx context.Context, identity core.Identity) ([]core.Wallet, error) {
	if creds, err := s.store.Get(ctx, identity); err == nil && creds.Wallet != nil {
		return []core.Wallet{*creds.Wallet}, nil
	}
	return s.provider.ListUserWallets(ctx, identity)
}

// InFlight reports whether a provisioning workflow is currently active
// for the identity.
func (s *ProvisioningService) InFlight(identity core.Identity) bool {
	return s.guard.InFlight(identity)
}

func (s *ProvisioningService) run(ctx context.Context, session *core.ProvisioningSession) (*core.Wallet, error) {
	if err := s.bootstrapUser(ctx, session); err != nil {
		session.State = core.StateFatal
		return nil, err
	}

	for session.Attempt = 1; session.Attempt <= s.maxAttempts; session.Attempt++ {
		wallet, retry, err := s.attempt(ctx, session)
		if err != nil {
			session.State = core.StateFatal
			return nil, err
		}
		if wallet != nil {
			return s.confirm(ctx, session, wallet)
		}
		if !retry {
			break
		}
	}

	session.State = core.StateFatal
	return nil, fmt.Errorf("no wallet after %d attempts: %w", s.maxAttempts, core.ErrFatalProvisioning)
}

// bootstrapUser is the INIT → USER_READY transition. An identity that
// already exists branches to the initialize path, which may hand back
// a still-pending security setup challenge.
func (s *ProvisioningService) bootstrapUser(ctx context.Context, session *core.ProvisioningSession) error {
	user, err := s.provider.CreateOrInitializeUser(ctx, session.Identity)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	session.State = core.StateUserReady

	if user.Exists {
		token, err := s.freshToken(ctx, session)
		if err != nil {
			return err
		}
		challengeID, err := s.provider.InitializeUser(ctx, session.Identity, token)
		if err != nil {
			return fmt.Errorf("initialize user: %w", err)
		}
		session.ChallengeID = challengeID
	}
	return nil
}

// attempt runs one TOKEN_READY → WALLET_REQUESTED pass. A nil wallet
// with retry=true means an ambiguous failure left no wallet behind and
// the budget allows another pass.
func (s *ProvisioningService) attempt(ctx context.Context, session *core.ProvisioningSession) (*core.Wallet, bool, error) {
	token, err := s.freshToken(ctx, session)
	if err != nil {
		return nil, false, err
	}
	session.State = core.StateTokenReady

	pending := session.ChallengeID
	session.ChallengeID = ""

	var result ports.WalletRequestResult
	if pending != "" {
		// The initialize path already issued a ceremony; resolve it
		// before asking for another wallet.
		result = ports.WalletRequestResult{ChallengeID: pending, RequiresChallenge: true}
	} else {
		session.State = core.StateWalletRequested
		// Fresh key per attempt: reusing one would let provider-side
		// deduplication mask a legitimate second attempt.
		result, err = s.provider.CreateWallet(ctx, session.Identity, token, uuid.New().String())
		if err != nil {
			if core.IsAmbiguous(err) {
				return s.recover(ctx, session, err)
			}
			return nil, false, fmt.Errorf("create wallet: %w", err)
		}
	}

	if result.Wallet != nil {
		session.State = core.StateDirectSuccess
		return result.Wallet, false, nil
	}
	if !result.RequiresChallenge || result.ChallengeID == "" {
		return nil, false, fmt.Errorf("provider returned neither wallet nor challenge: %w", core.ErrFatalProvisioning)
	}

	session.State = core.StateChallengeRequired
	session.ChallengeID = result.ChallengeID
	wallet, retry, err := s.resolveChallenge(ctx, session)
	session.ChallengeID = ""
	return wallet, retry, err
}

// resolveChallenge drives the ceremony and re-queries the wallet list,
// since the provider does not return the wallet synchronously from the
// challenge call itself.
func (s *ProvisioningService) resolveChallenge(ctx context.Context, session *core.ProvisioningSession) (*core.Wallet, bool, error) {
	// The ceremony is a sensitive call in its own right, and the token
	// from the wallet request may be near the end of its window after
	// user think-time.
	token, err := s.freshToken(ctx, session)
	if err != nil {
		return nil, false, err
	}

	session.State = core.StateChallengeExecuting
	outcome, err := s.executor.Execute(ctx, token, session.ChallengeID)
	if err != nil {
		// No completion signal: the provider may have finished the
		// setup anyway.
		return s.recover(ctx, session, err)
	}

	switch outcome.Kind {
	case core.OutcomeFatal:
		return nil, false, fmt.Errorf("challenge %s failed (code %d): %s: %w",
			session.ChallengeID, outcome.Code, outcome.Message, core.ErrFatalProvisioning)
	case core.OutcomeAdvisory:
		log.Printf("challenge %s advisory %d: %s", session.ChallengeID, outcome.Code, outcome.Message)
		s.corroborate(ctx, session.ChallengeID)
	}
	session.State = core.StateChallengeResolved

	wallets, err := s.provider.ListUserWallets(ctx, session.Identity)
	if err != nil {
		if core.IsAmbiguous(err) {
			return s.recover(ctx, session, err)
		}
		return nil, false, fmt.Errorf("list wallets: %w", err)
	}
	if len(wallets) == 0 {
		return nil, session.Attempt < s.maxAttempts, nil
	}
	return &wallets[0], false, nil
}

// recover is the fallback step for ambiguous failures: the provider's
// wallet list is the source of truth for whether the side effect
// happened. A canceled caller still gets one probe on a detached
// context so an actually-created wallet is not stranded.
func (s *ProvisioningService) recover(ctx context.Context, session *core.ProvisioningSession, cause error) (*core.Wallet, bool, error) {
	session.State = core.StateRecoverable

	probeCtx := ctx
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		probeCtx, cancel = context.WithTimeout(context.Background(), recoveryProbeTimeout)
		defer cancel()
	}

	wallets, err := s.provider.ListUserWallets(probeCtx, session.Identity)
	if err == nil && len(wallets) > 0 {
		return &wallets[0], false, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, false, fmt.Errorf("abandoned after ambiguous failure: %w", core.ErrProvisioningTimeout)
		}
		return nil, false, fmt.Errorf("abandoned after ambiguous failure: %w", ctxErr)
	}
	if session.Attempt >= s.maxAttempts {
		return nil, false, fmt.Errorf("ambiguous failure, no wallet found (%v): %w", cause, core.ErrFatalProvisioning)
	}
	return nil, true, nil
}

// confirm is the CONFIRMED → DONE transition: persist and announce.
func (s *ProvisioningService) confirm(ctx context.Context, session *core.ProvisioningSession, wallet *core.Wallet) (*core.Wallet, error) {
	session.State = core.StateConfirmed
	session.Wallet = wallet

	// Recovery can hand back a wallet after the caller is gone; the
	// record still has to land.
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.Background(), recoveryProbeTimeout)
		defer cancel()
	}

	if err := s.store.Put(ctx, session.Identity, session.Token, wallet); err != nil {
		return nil, fmt.Errorf("persist credentials: %w", err)
	}

	if s.eventPub != nil {
		if err := s.eventPub.PublishWalletProvisioned(ctx, session.Identity, *wallet); err != nil {
			// The wallet exists and is persisted; the event is advisory.
			log.Printf("warning: failed to publish wallet.provisioned for %s: %v", session.Identity, err)
		}
	}

	session.State = core.StateDone
	return wallet, nil
}

// freshToken acquires a new token immediately before a sensitive call.
// Tokens are never carried over from an earlier step; the provider's
// validity window is shorter than typical UI think-time.
func (s *ProvisioningService) freshToken(ctx context.Context, session *core.ProvisioningSession) (core.AccessToken, error) {
	token, err := s.provider.GetUserToken(ctx, session.Identity)
	if err != nil {
		return core.AccessToken{}, fmt.Errorf("acquire user token: %w", err)
	}
	session.Token = &token
	return token, nil
}

// corroborate asks the provider for the challenge's status after an
// advisory outcome. Logged only; the wallet list, not this, decides
// the workflow's next step.
func (s *ProvisioningService) corroborate(ctx context.Context, challengeID string) {
	challenge, err := s.provider.GetChallengeStatus(ctx, challengeID)
	if err != nil {
		log.Printf("challenge %s status probe failed: %v", challengeID, err)
		return
	}
	log.Printf("challenge %s provider status: %s", challenge.ID, challenge.Status)
}
