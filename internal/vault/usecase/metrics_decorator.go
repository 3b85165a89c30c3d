package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/vaultcore/internal/metrics"
	vaultDomain "github.com/allisson/vaultcore/internal/vault/domain"
)

// vaultUseCaseWithMetrics decorates UseCase with metrics instrumentation.
type vaultUseCaseWithMetrics struct {
	next    UseCase
	metrics metrics.BusinessMetrics
}

// NewVaultUseCaseWithMetrics wraps a vault UseCase with metrics recording.
func NewVaultUseCaseWithMetrics(useCase UseCase, m metrics.BusinessMetrics) UseCase {
	return &vaultUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// record emits the operation counter and duration histogram for one call.
func (v *vaultUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	v.metrics.RecordOperation(ctx, metrics.DomainVault, operation, status)
	v.metrics.RecordDuration(ctx, metrics.DomainVault, operation, time.Since(start), status)
}

func (v *vaultUseCaseWithMetrics) Create(ctx context.Context, input CreateInput) (*vaultDomain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.Create(ctx, input)
	v.record(ctx, "item_create", start, err)
	return item, err
}

func (v *vaultUseCaseWithMetrics) Get(ctx context.Context, input GetInput) (*vaultDomain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.Get(ctx, input)
	operation := "item_get"
	if input.Decrypt {
		operation = "item_decrypt"
	}
	v.record(ctx, operation, start, err)
	return item, err
}

func (v *vaultUseCaseWithMetrics) List(
	ctx context.Context,
	actor Actor,
	filter vaultDomain.ListFilter,
	limit, offset int,
) ([]*vaultDomain.VaultItem, error) {
	start := time.Now()
	items, err := v.next.List(ctx, actor, filter, limit, offset)
	v.record(ctx, "item_list", start, err)
	return items, err
}

func (v *vaultUseCaseWithMetrics) ListSharedWith(ctx context.Context, actor Actor) ([]*vaultDomain.VaultItem, error) {
	start := time.Now()
	items, err := v.next.ListSharedWith(ctx, actor)
	v.record(ctx, "item_list_shared", start, err)
	return items, err
}

func (v *vaultUseCaseWithMetrics) UpdateMetadata(
	ctx context.Context,
	input UpdateMetadataInput,
) (*vaultDomain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.UpdateMetadata(ctx, input)
	v.record(ctx, "item_update_metadata", start, err)
	return item, err
}

func (v *vaultUseCaseWithMetrics) UpdateValue(
	ctx context.Context,
	input UpdateValueInput,
) (*vaultDomain.VaultItem, error) {
	start := time.Now()
	item, err := v.next.UpdateValue(ctx, input)
	v.record(ctx, "item_update_value", start, err)
	return item, err
}

func (v *vaultUseCaseWithMetrics) Delete(ctx context.Context, input DeleteInput) error {
	start := time.Now()
	err := v.next.Delete(ctx, input)
	v.record(ctx, "item_delete", start, err)
	return err
}

func (v *vaultUseCaseWithMetrics) PurgeUser(ctx context.Context, actor Actor, userID uuid.UUID) error {
	start := time.Now()
	err := v.next.PurgeUser(ctx, actor, userID)
	v.record(ctx, "user_purge", start, err)
	return err
}
