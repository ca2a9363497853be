package cli

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/alapierre/go-idp-client/idp/api"
	"github.com/alapierre/go-idp-client/idp/checkout"
	"github.com/alapierre/go-idp-client/idp/handoff"
)

func (a *app) newCheckout(h *handoff.Handoff) *checkout.Checkout {
	var opts []checkout.Option
	if a.cfg.SiteURL != "" {
		opts = append(opts, checkout.WithReturnURL(a.cfg.SiteURL+"/success"))
	}
	return checkout.New(a.client(), h, opts...)
}

func checkoutCmd(a *app) *cobra.Command {
	var qr string
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Create a payment intent for the submitted application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withHandoff(ctx, func(h *handoff.Handoff) error {
				co := a.newCheckout(h)
				summary, err := co.Load(ctx)
				if err != nil {
					return err
				}
				if err := a.render(summaryReport, summary); err != nil {
					return err
				}
				intent, err := co.CreateIntent(ctx)
				if err != nil {
					return err
				}
				a.printf("Amount:         %s USD\n", intent.Amount.StringFixed(2))
				a.printf("Payment intent: %s\n", intent.PaymentIntentID)
				a.printf("Client secret:  %s\n", intent.ClientSecret)
				if a.cfg.PublishableKey != "" {
					a.printf("Publishable key: %s\n", a.cfg.PublishableKey)
				}

				if qr == "" {
					return nil
				}
				link, img, err := checkout.ContinueQR(a.cfg.SiteURL, summary.ApplicationID)
				if err != nil {
					return err
				}
				if err := os.WriteFile(qr, img, 0o644); err != nil {
					return errors.Wrap(err, "write qr image")
				}
				a.printf("Checkout link:  %s (QR saved to %s)\n", link, qr)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&qr, "qr", "", "write a QR code with the checkout link to this PNG file")
	return cmd
}

func confirmCmd(a *app) *cobra.Command {
	var paymentIntent, status string
	cmd := &cobra.Command{
		Use:   "confirm",
		Short: "Record the payment processor's result for the submitted application",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if paymentIntent == "" {
				return errors.New("--payment-intent is required")
			}
			ctx := cmd.Context()
			return a.withHandoff(ctx, func(h *handoff.Handoff) error {
				co := a.newCheckout(h)
				if _, err := co.Load(ctx); err != nil {
					return err
				}
				if status == string(api.StatusFailed) {
					if err := co.ReportFailure(ctx, paymentIntent); err != nil {
						return err
					}
					a.printf("Payment %s reported as failed, the application is still waiting for payment.\n", paymentIntent)
					return nil
				}
				out, err := co.Record(ctx, &checkout.Confirmation{PaymentIntentID: paymentIntent, Status: status})
				if err != nil {
					return err
				}
				if !out.Completed {
					a.printf("Payment %s is %s.\n", out.PaymentIntentID, out.Status)
					return nil
				}
				a.printf("Payment %s completed.\n", out.PaymentIntentID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&paymentIntent, "payment-intent", "", "payment intent id")
	cmd.Flags().StringVar(&status, "status", checkout.StatusSucceeded, "processor status: succeeded, processing, requires_action or failed")
	return cmd
}

func verifyCmd(a *app) *cobra.Command {
	var sessionID, paymentIntent string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify a payment after returning from the payment page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if sessionID != "" && paymentIntent != "" {
				return errors.New("use either --session-id or --payment-intent")
			}
			ctx := cmd.Context()
			return a.withHandoff(ctx, func(h *handoff.Handoff) error {
				co := a.newCheckout(h)
				var (
					paid *api.Application
					err  error
				)
				if paymentIntent != "" {
					paid, err = co.VerifyReturn(ctx, paymentIntent)
				} else {
					paid, err = co.VerifySession(ctx, sessionID)
				}
				if err != nil {
					return err
				}
				return a.render(verifiedReport, paid)
			})
		},
	}
	cmd.Flags().StringVar(&sessionID, "session-id", "", "checkout session id from the return URL")
	cmd.Flags().StringVar(&paymentIntent, "payment-intent", "", "payment intent id from the return URL")
	return cmd
}
