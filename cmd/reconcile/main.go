// Comando reconcile: lista y reintenta las transferencias de despachos que quedaron
// registrados sin movimiento de inventario.
package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/jhoicas/bodegas-api/internal/bootstrap"
	"github.com/jhoicas/bodegas-api/pkg/config"
	"github.com/jhoicas/bodegas-api/pkg/logger"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "reconcile",
		Usage: "concilia despachos sin transferencia registrada",
		Commands: []*cli.Command{
			{
				Name:   "list",
				Usage:  "lista despachos pendientes de transferencia",
				Action: listAction,
			},
			{
				Name:  "retry",
				Usage: "reintenta la transferencia de uno o todos los despachos pendientes",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dispatch-id", Usage: "ID del despacho"},
					&cli.BoolFlag{Name: "all", Usage: "todos los despachos pendientes"},
					&cli.BoolFlag{Name: "dry-run", Usage: "solo muestra lo que se reintentaría"},
				},
				Action: retryAction,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setup(ctx context.Context) (*bootstrap.Container, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("cargar configuración: %w", err)
	}
	if cfg.DB.Driver == config.DriverMemory {
		return nil, nil, fmt.Errorf("reconcile requiere DB_DRIVER=postgres")
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level, Service: cfg.App.Name + "-reconcile"})
	cfg.Metrics.Enabled = false
	container, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	return container, log, nil
}

func listAction(c *cli.Context) error {
	container, _, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer container.Close()

	pending, err := container.Workflow.PendingTransfers(c.Context)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		fmt.Println("sin despachos pendientes")
		return nil
	}
	for _, d := range pending {
		fmt.Printf("%s\trequisición=%s\tdespachador=%s\tfecha=%s\tlíneas=%d\n",
			d.ID, d.RequisitionID, d.DispatcherID, d.DispatchedAt.Format(time.RFC3339), len(d.Lines))
	}
	return nil
}

func retryAction(c *cli.Context) error {
	dispatchID := c.String("dispatch-id")
	all := c.Bool("all")
	if (dispatchID == "") == !all {
		return fmt.Errorf("indique --dispatch-id o --all")
	}
	container, log, err := setup(c.Context)
	if err != nil {
		return err
	}
	defer container.Close()

	if c.Bool("dry-run") {
		pending, err := container.Workflow.PendingTransfers(c.Context)
		if err != nil {
			return err
		}
		for _, d := range pending {
			if all || d.ID == dispatchID {
				fmt.Printf("reintentaría %s (requisición %s)\n", d.ID, d.RequisitionID)
			}
		}
		return nil
	}

	if dispatchID != "" {
		mov, err := container.Workflow.RetryTransfer(c.Context, dispatchID)
		if err != nil {
			return err
		}
		fmt.Printf("%s\tmovimiento=%s\n", dispatchID, mov.ID)
		return nil
	}

	report, err := container.Workflow.ReconcileAll(c.Context)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(report.Reconciled))
	for id := range report.Reconciled {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		fmt.Printf("%s\tmovimiento=%s\n", id, report.Reconciled[id])
	}
	for id, ferr := range report.Failed {
		log.Error().Err(ferr).Str("dispatch_id", id).Msg("reintento fallido")
	}
	if len(report.Failed) > 0 {
		return fmt.Errorf("%d despachos sin conciliar", len(report.Failed))
	}
	return nil
}
