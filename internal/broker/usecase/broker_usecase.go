package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	brokerDomain "github.com/tokenward/tokenward/internal/broker/domain"
	apperrors "github.com/tokenward/tokenward/internal/errors"
	"github.com/tokenward/tokenward/internal/ledger"
	"github.com/tokenward/tokenward/internal/signer"
	"github.com/tokenward/tokenward/internal/storage"
)

// brokerUseCase implements the BrokerUseCase interface.
type brokerUseCase struct {
	ledger       ledger.Ledger
	presigner    storage.Presigner
	registry     StatusProvider
	logger       *slog.Logger
	presignTTL   time.Duration
	replayWindow time.Duration

	// now is the clock; replaced in tests to exercise the replay boundary.
	now func() time.Time
}

// NewBrokerUseCase creates a new broker use case instance.
func NewBrokerUseCase(
	tokenLedger ledger.Ledger,
	presigner storage.Presigner,
	registry StatusProvider,
	logger *slog.Logger,
	presignTTL time.Duration,
	replayWindow time.Duration,
) BrokerUseCase {
	return &brokerUseCase{
		ledger:       tokenLedger,
		presigner:    presigner,
		registry:     registry,
		logger:       logger,
		presignTTL:   presignTTL,
		replayWindow: replayWindow,
		now:          time.Now,
	}
}

// Presign runs the full verification chain and mints the credential set.
func (b *brokerUseCase) Presign(
	ctx context.Context,
	request *brokerDomain.AccessRequest,
) (*brokerDomain.IssuedCredential, error) {
	resourceToken, _, err := brokerDomain.ParseResourceID(request.ResourceID)
	if err != nil {
		return nil, err
	}
	if resourceToken != request.TokenID {
		return nil, brokerDomain.ErrTokenMismatch
	}
	if request.Action == brokerDomain.ActionWrite && len(request.ObjectKeys) == 0 {
		return nil, brokerDomain.ErrNoObjectKeys
	}

	// Replay bound: a timestamp exactly at the window edge is still valid.
	now := b.now().UTC()
	age := now.Sub(time.Unix(request.Timestamp, 0))
	if age < 0 {
		age = -age
	}
	if age > b.replayWindow {
		return nil, brokerDomain.ErrStaleTimestamp
	}

	signerAddr, err := signer.RecoverAddress(request.SignedMessage(), request.Signature)
	if err != nil {
		return nil, err
	}

	// Live ownership check. Never cached: a holder from moments ago is not
	// a holder now.
	holder, err := b.ledger.HolderOf(ctx, request.TokenID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, brokerDomain.ErrSignerNotHolder
		}
		return nil, err
	}
	if holder != signerAddr {
		return nil, brokerDomain.ErrSignerNotHolder
	}

	credential, err := b.issue(ctx, request)
	if err != nil {
		return nil, err
	}

	b.logger.Info("credential issued",
		slog.String("resource_id", request.ResourceID),
		slog.String("action", string(request.Action)),
		slog.Uint64("token_id", request.TokenID),
		slog.Int("object_urls", len(credential.URLs.Objects)),
	)
	return credential, nil
}

// issue presigns every URL of the credential concurrently. If any single
// presign fails the whole credential is withheld.
func (b *brokerUseCase) issue(
	ctx context.Context,
	request *brokerDomain.AccessRequest,
) (*brokerDomain.IssuedCredential, error) {
	objectKeys := request.ObjectKeys
	if request.Action == brokerDomain.ActionRead {
		storageKeys, err := b.presigner.ListKeys(ctx, brokerDomain.ObjectsPrefix(request.ResourceID))
		if err != nil {
			return nil, err
		}
		objectKeys = make([]string, 0, len(storageKeys))
		for _, storageKey := range storageKeys {
			objectKeys = append(objectKeys, brokerDomain.ObjectKeyFromStorage(request.ResourceID, storageKey))
		}
	}

	sign := b.presigner.SignedGetURL
	if request.Action == brokerDomain.ActionWrite {
		sign = b.presigner.SignedPutURL
	}

	credential := &brokerDomain.IssuedCredential{
		ExpiresAt: b.now().UTC().Add(b.presignTTL),
		URLs: brokerDomain.CredentialURLs{
			Objects: make(map[string]string, len(objectKeys)),
		},
	}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		url, err := sign(groupCtx, brokerDomain.ManifestKey(request.ResourceID), b.presignTTL)
		if err != nil {
			return err
		}
		mu.Lock()
		credential.URLs.Manifest = url
		mu.Unlock()
		return nil
	})
	group.Go(func() error {
		url, err := sign(groupCtx, brokerDomain.ReportKey(request.ResourceID), b.presignTTL)
		if err != nil {
			return err
		}
		mu.Lock()
		credential.URLs.Report = url
		mu.Unlock()
		return nil
	})
	for _, objectKey := range objectKeys {
		group.Go(func() error {
			url, err := sign(groupCtx, brokerDomain.ObjectStorageKey(request.ResourceID, objectKey), b.presignTTL)
			if err != nil {
				return err
			}
			mu.Lock()
			credential.URLs.Objects[objectKey] = url
			mu.Unlock()
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}
	return credential, nil
}

// Status returns the public ownership projection for a resource.
func (b *brokerUseCase) Status(ctx context.Context, resourceID string) (*brokerDomain.ResourceStatus, error) {
	tokenID, _, err := brokerDomain.ParseResourceID(resourceID)
	if err != nil {
		return nil, err
	}

	tokenStatus, err := b.registry.Status(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	return &brokerDomain.ResourceStatus{
		ResourceID:          resourceID,
		TokenID:             tokenID,
		State:               string(tokenStatus.State),
		CurrentHolder:       tokenStatus.CurrentHolder.Hex(),
		BoundAccount:        tokenStatus.BoundAccount.Hex(),
		ConfirmedController: tokenStatus.ConfirmedController.Hex(),
		PendingClaim:        tokenStatus.PendingClaim,
		InClaimWindow:       tokenStatus.InClaimWindow,
	}, nil
}
