package commands

import (
	"errors"
	"fmt"

	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"github.com/dalemusser/loomos/internal/domain/models"
)

var errUnresolved = errors.New("no organization resolved")

// ResolveCmd runs the server's resolution chain for a synthetic request.
type ResolveCmd struct {
	Host       string `arg:"" help:"Host header, e.g. montrecott.loomos.com."`
	OrgID      string `help:"Organization override parameter." name:"org-id"`
	Role       string `help:"Session role (superadmin, admin, board, member); empty means anonymous."`
	SessionOrg string `help:"Session home organization id."`
}

func (c *ResolveCmd) Run(ctx *cliCtx) error {
	store, release, err := ctx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	var sess *tenant.Session
	if c.Role != "" || c.SessionOrg != "" {
		sess = &tenant.Session{UserID: "loomctl", Role: models.ParseRole(c.Role), OrganizationID: c.SessionOrg}
	}

	rctx, cancel := timeouts.WithShort(ctx)
	defer cancel()
	res := tenant.NewResolver(ctx.Tenant, store, ctx.Logger).Resolve(rctx, tenant.Request{
		Host:       c.Host,
		OrgIDParam: c.OrgID,
		Session:    sess,
	})
	if res == nil {
		fmt.Fprintf(ctx.Out, "%s: not resolved\n", c.Host)
		return errUnresolved
	}
	fmt.Fprintf(ctx.Out, "organization: %s (%s)\nsource:       %s\nstate:        %s\n",
		res.OrganizationID, res.Organization.Name, res.Source, res.State())
	return nil
}
