package commands

import (
	"errors"
	"fmt"

	"github.com/dalemusser/loomos/internal/app/system/tenant"
)

// errInvalid makes kong exit non-zero after the reason has been printed.
var errInvalid = errors.New("invalid")

// ValidateCmd is the parent command for input validation.
type ValidateCmd struct {
	Subdomain ValidateSubdomainCmd `cmd:"" help:"Validate a subdomain candidate."`
	Domain    ValidateDomainCmd    `cmd:"" help:"Validate a custom domain candidate."`
}

type ValidateSubdomainCmd struct {
	Value string `arg:"" help:"Subdomain to check."`
}

type ValidateDomainCmd struct {
	Value string `arg:"" help:"Domain to check."`
}

func (c *ValidateSubdomainCmd) Run(ctx *cliCtx) error {
	return report(ctx, c.Value, tenant.NewValidator(ctx.Tenant).Subdomain(c.Value))
}

func (c *ValidateDomainCmd) Run(ctx *cliCtx) error {
	return report(ctx, c.Value, tenant.NewValidator(ctx.Tenant).CustomDomain(c.Value))
}

func report(ctx *cliCtx, value string, v tenant.Validation) error {
	if v.Valid {
		fmt.Fprintf(ctx.Out, "%s: valid\n", value)
		return nil
	}
	fmt.Fprintf(ctx.Out, "%s: %s\n", value, v.Error)
	return errInvalid
}
