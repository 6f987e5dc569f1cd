package view

import (
	"context"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/realtime"
	"github.com/muhammedkisla/deryailetisim/internal/reconcile"
)

// PhoneLister loads phones from storage.
type PhoneLister interface {
	List(ctx context.Context, filter models.PhoneFilter) ([]models.Phone, error)
}

// CampaignLister loads installment campaigns from storage.
type CampaignLister interface {
	List(ctx context.Context) ([]models.InstallmentCampaign, error)
}

// NewPublicPhones builds the storefront list: in-stock phones only.
func NewPublicPhones(hub *realtime.Hub, repo PhoneLister, opts Options) *LiveList[models.Phone] {
	inStock := true
	opts.Table = realtime.TablePhones
	if opts.Name == "" {
		opts.Name = "public_phones"
	}
	rec := reconcile.New(models.PhoneID, models.ByCashPriceDesc, models.InStock)
	fetch := func(ctx context.Context) ([]models.Phone, error) {
		return repo.List(ctx, models.PhoneFilter{Stock: &inStock})
	}
	return NewLiveList(hub, rec, fetch, realtime.MapPhone, opts)
}

// NewAdminPhones builds the admin list: every phone.
func NewAdminPhones(hub *realtime.Hub, repo PhoneLister, opts Options) *LiveList[models.Phone] {
	opts.Table = realtime.TablePhones
	if opts.Name == "" {
		opts.Name = "admin_phones"
	}
	rec := reconcile.New(models.PhoneID, models.ByCashPriceDesc, nil)
	fetch := func(ctx context.Context) ([]models.Phone, error) {
		return repo.List(ctx, models.PhoneFilter{})
	}
	return NewLiveList(hub, rec, fetch, realtime.MapPhone, opts)
}

// NewCampaigns builds the installment campaigns list.
func NewCampaigns(hub *realtime.Hub, repo CampaignLister, opts Options) *LiveList[models.InstallmentCampaign] {
	opts.Table = realtime.TableCampaigns
	if opts.Name == "" {
		opts.Name = "campaigns"
	}
	rec := reconcile.New(models.CampaignID, models.ByCreatedAt, nil)
	return NewLiveList(hub, rec, repo.List, realtime.MapCampaign, opts)
}
