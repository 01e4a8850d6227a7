package commands

import (
	"fmt"

	"github.com/dalemusser/loomos/internal/app/system/tenant"
)

type TokenCmd struct {
	Domain string `arg:"" optional:"" help:"Custom domain; prints the TXT record to publish."`
}

func (c *TokenCmd) Run(ctx *cliCtx) error {
	token, err := tenant.GenerateVerificationToken(ctx.Tenant.PlatformName)
	if err != nil {
		return err
	}
	if c.Domain == "" {
		fmt.Fprintln(ctx.Out, token)
		return nil
	}
	if v := tenant.NewValidator(ctx.Tenant).CustomDomain(c.Domain); !v.Valid {
		return fmt.Errorf("%s: %s", c.Domain, v.Error)
	}
	fmt.Fprintf(ctx.Out, "%s\tTXT\t%q\n", tenant.VerificationRecordName(ctx.Tenant.PlatformName, c.Domain), token)
	return nil
}
