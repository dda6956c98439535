// Comando token: emite un JWT firmado con JWT_SECRET para pruebas y operación.
// Los usuarios viven fuera de este servicio; aquí solo se firma la identidad indicada.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/bodegas-api/internal/application/requisition"
	"github.com/jhoicas/bodegas-api/pkg/config"
	"github.com/jhoicas/bodegas-api/pkg/jwt"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "token",
		Usage: "emite un token Bearer para la API de bodegas",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "ID del usuario", Required: true},
			&cli.StringFlag{Name: "role", Usage: "admin | aprobador | bodeguero | solicitante", Required: true},
			&cli.DurationFlag{Name: "ttl", Usage: "vigencia; por defecto JWT_EXPIRATION_MINUTES"},
		},
		Action: issue,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func issue(c *cli.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	role := c.String("role")
	if !requisition.KnownRole(role) {
		return fmt.Errorf("rol desconocido %q", role)
	}
	ttl := c.Duration("ttl")
	if ttl <= 0 {
		ttl = time.Duration(cfg.JWT.Expiration) * time.Minute
	}
	tok, err := jwt.Generate(cfg.JWT.Secret, jwt.Identity{UserID: c.String("user"), Role: role}, cfg.JWT.Issuer, ttl)
	if err != nil {
		return err
	}
	fmt.Println(tok)
	return nil
}
