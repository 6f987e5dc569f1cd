package service

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/muhammedkisla/deryailetisim/internal/models"
	"github.com/muhammedkisla/deryailetisim/internal/repository"
	"github.com/muhammedkisla/deryailetisim/internal/utils"
)

// CampaignStore is the storage for installment campaigns.
type CampaignStore interface {
	Insert(ctx context.Context, c *models.InstallmentCampaign) error
	Update(ctx context.Context, c *models.InstallmentCampaign) error
	Delete(ctx context.Context, id string) (bool, error)
}

// CampaignInput is the admin create/update payload.
type CampaignInput struct {
	BankName               string `json:"bank_name"`
	InstallmentDescription string `json:"installment_description"`
}

// CampaignService manages the bank installment table.
type CampaignService struct {
	repo CampaignStore
}

func NewCampaignService(repo CampaignStore) *CampaignService {
	return &CampaignService{repo: repo}
}

func (s *CampaignService) Create(ctx context.Context, in *CampaignInput) (*models.InstallmentCampaign, error) {
	c, err := campaignFromInput(in)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Insert(ctx, c); err != nil {
		log.Error().Err(err).Str("bank_name", c.BankName).Msg("Failed to insert campaign")
		return nil, err
	}
	log.Info().Str("campaign_id", c.ID).Str("bank_name", c.BankName).Msg("Campaign created")
	return c, nil
}

func (s *CampaignService) Update(ctx context.Context, id string, in *CampaignInput) (*models.InstallmentCampaign, error) {
	c, err := campaignFromInput(in)
	if err != nil {
		return nil, err
	}
	c.ID = id
	if err := s.repo.Update(ctx, c); err != nil {
		if repository.IsNotFound(err) {
			return nil, utils.ErrCampaignNotFound
		}
		log.Error().Err(err).Str("campaign_id", id).Msg("Failed to update campaign")
		return nil, err
	}
	return c, nil
}

func (s *CampaignService) Delete(ctx context.Context, id string) error {
	ok, err := s.repo.Delete(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("campaign_id", id).Msg("Failed to delete campaign")
		return err
	}
	if !ok {
		return utils.ErrCampaignNotFound
	}
	return nil
}

func campaignFromInput(in *CampaignInput) (*models.InstallmentCampaign, error) {
	bank := strings.TrimSpace(in.BankName)
	if bank == "" {
		return nil, utils.ErrBankNameRequired
	}
	desc := strings.TrimSpace(in.InstallmentDescription)
	if desc == "" {
		return nil, utils.ErrDescriptionNeeded
	}
	return &models.InstallmentCampaign{BankName: bank, InstallmentDescription: desc}, nil
}
