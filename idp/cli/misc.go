package cli

import (
	"os"

	"github.com/go-faster/errors"
	"github.com/spf13/cobra"

	"github.com/alapierre/go-idp-client/idp/canvas"
	"github.com/alapierre/go-idp-client/idp/fakeapi"
	"github.com/alapierre/go-idp-client/idp/handoff"
	"github.com/alapierre/go-idp-client/idp/pricing"
)

func priceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "price [period]",
		Short: "Show IDP prices, or the total for one period",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.render(priceReport, pricing.Periods())
			}
			total, err := pricing.Total(args[0])
			if err != nil {
				return err
			}
			a.printf("%s\n", total.StringFixed(2))
			return nil
		},
	}
}

func signatureCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "signature",
		Short: "Signature capture tools",
	}

	var strokes, out, svg, display string
	var width, height int
	render := &cobra.Command{
		Use:   "render",
		Short: "Render recorded strokes to the PNG that would be submitted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if out == "" && svg == "" {
				return errors.New("nothing to write, pass --out and/or --svg")
			}
			s, err := canvas.New(width, height)
			if err != nil {
				return err
			}
			if err := drawStrokes(s, strokes, display); err != nil {
				return err
			}
			if !s.HasContent() {
				logger.Warn("strokes produced a blank signature")
			}
			if out != "" {
				data, err := s.ExportPNG()
				if err != nil {
					return err
				}
				if err := os.WriteFile(out, data, 0o644); err != nil {
					return errors.Wrap(err, "write png")
				}
				a.printf("PNG written to %s\n", out)
			}
			if svg != "" {
				data, err := s.ExportSVG()
				if err != nil {
					return err
				}
				if err := os.WriteFile(svg, data, 0o644); err != nil {
					return errors.Wrap(err, "write svg")
				}
				a.printf("SVG written to %s\n", svg)
			}
			return nil
		},
	}
	f := render.Flags()
	f.StringVar(&strokes, "strokes", "", "recorded strokes (JSON)")
	f.StringVarP(&out, "out", "o", "", "PNG output file")
	f.StringVar(&svg, "svg", "", "SVG output file")
	f.StringVar(&display, "display", "", "size the strokes were recorded at, WIDTHxHEIGHT")
	f.IntVar(&width, "width", canvas.DefaultWidth, "backing store width in pixels")
	f.IntVar(&height, "height", canvas.DefaultHeight, "backing store height in pixels")
	_ = render.MarkFlagRequired("strokes")

	cmd.AddCommand(render)
	return cmd
}

func handoffCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "handoff",
		Short: "Inspect the application waiting for checkout",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the application waiting for checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withHandoff(ctx, func(h *handoff.Handoff) error {
				s, err := h.Peek(ctx)
				if err != nil {
					return err
				}
				return a.render(summaryReport, s)
			})
		},
	}, &cobra.Command{
		Use:   "clear",
		Short: "Forget the application waiting for checkout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			return a.withHandoff(ctx, func(h *handoff.Handoff) error {
				if err := h.Discard(ctx); err != nil {
					return err
				}
				a.printf("Handoff cleared.\n")
				return nil
			})
		},
	})
	return cmd
}

func fakeAPICmd(a *app) *cobra.Command {
	var addr string
	var firstID int64
	cmd := &cobra.Command{
		Use:   "fake-api",
		Short: "Run an in-memory stand-in for the IDP backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a.printf("Fake IDP API listening on %s\n", addr)
			return fakeapi.New(fakeapi.WithFirstID(firstID)).Run(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8000", "listen address")
	cmd.Flags().Int64Var(&firstID, "first-id", 1, "id given to the first application")
	return cmd
}
