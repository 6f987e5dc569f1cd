package cli

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/muhammedkisla/deryailetisim/internal/config"
	"github.com/muhammedkisla/deryailetisim/internal/pricing"
)

var priceFlags struct {
	convention  string
	single      string
	installment string
}

var priceCmd = &cobra.Command{
	Use:   "price <cash>",
	Short: "Preview the derived prices for a cash price",
	Long: `Print the single payment and installment prices the price list would
show for a cash price. Rates default to the configured form defaults.

Examples:
  deryactl price 65.000
  deryactl price 65000 --single 0,97 --installment 0,93
  deryactl price 65000 --convention multiplicative --single 1.05 --installment 1.10`,
	Args: cobra.ExactArgs(1),
	RunE: runPrice,
}

func init() {
	priceCmd.Flags().StringVar(&priceFlags.convention, "convention", "", "pricing convention (default from PRICING_CONVENTION)")
	priceCmd.Flags().StringVar(&priceFlags.single, "single", "", "single payment rate")
	priceCmd.Flags().StringVar(&priceFlags.installment, "installment", "", "installment rate")
}

func runPrice(cmd *cobra.Command, args []string) error {
	pc := config.LoadPricing()
	if priceFlags.convention != "" {
		pc.Convention = priceFlags.convention
	}
	convention, err := pricing.ParseConvention(pc.Convention)
	if err != nil {
		return err
	}
	calc, err := pricing.NewCalculator(convention)
	if err != nil {
		return err
	}

	cash, err := pricing.ParseCash(args[0])
	if err != nil {
		return fmt.Errorf("cash price: %w", err)
	}
	single, installment := calc.DefaultRates()
	if single, err = rateOr(priceFlags.single, pc.DefaultSingleRate, single); err != nil {
		return fmt.Errorf("single payment rate: %w", err)
	}
	if installment, err = rateOr(priceFlags.installment, pc.DefaultInstallmentRate, installment); err != nil {
		return fmt.Errorf("installment rate: %w", err)
	}

	prices, err := calc.Derive(cash, single, installment)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "convention:      %s\n", convention)
	fmt.Fprintf(out, "cash:            %s\n", pricing.FormatTRY(prices.Cash))
	fmt.Fprintf(out, "single payment:  %s (rate %s)\n", pricing.FormatTRY(prices.SinglePayment), single)
	fmt.Fprintf(out, "installment:     %s (rate %s)\n", pricing.FormatTRY(prices.Installment), installment)
	return nil
}

func rateOr(flag, configured string, fallback decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case flag != "":
		return pricing.ParseRate(flag)
	case configured != "":
		return pricing.ParseRate(configured)
	default:
		return fallback, nil
	}
}
