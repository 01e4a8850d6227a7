package commands

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/loomos/internal/app/system/tenant"
	"github.com/dalemusser/loomos/internal/app/system/timeouts"
	"go.uber.org/zap"
)

var errNotVerified = errors.New("verification record not found")

// VerifyCmd checks that an organization published its verification token
// and, when it has, marks the custom domain verified.
type VerifyCmd struct {
	OrgID  string `arg:"" help:"Organization id."`
	DryRun bool   `help:"Check DNS without recording the result." short:"n"`
}

func (c *VerifyCmd) Run(ctx *cliCtx) error {
	store, release, err := ctx.OpenStore(ctx)
	if err != nil {
		return err
	}
	defer release()

	org, err := store.GetByID(ctx, c.OrgID)
	if err != nil {
		return fmt.Errorf("load organization %s: %w", c.OrgID, err)
	}
	if !org.HasCustomDomain() || org.DomainVerification == nil {
		return fmt.Errorf("organization %s has no pending custom domain", c.OrgID)
	}
	if org.DomainVerified() {
		fmt.Fprintf(ctx.Out, "%s: already verified at %s\n", org.CustomDomainValue(),
			org.DomainVerification.VerifiedAt.Format(time.RFC3339))
		return nil
	}

	name := tenant.VerificationRecordName(ctx.Tenant.PlatformName, org.CustomDomainValue())
	lctx, cancel := timeouts.WithLong(ctx)
	defer cancel()
	records, err := ctx.LookupTXT(lctx, name)
	if err != nil {
		ctx.Logger.Debug("TXT lookup failed", zap.String("name", name), zap.Error(err))
		fmt.Fprintf(ctx.Out, "%s: no TXT record at %s\n", org.CustomDomainValue(), name)
		return errNotVerified
	}
	if !containsToken(records, org.DomainVerification.Token) {
		fmt.Fprintf(ctx.Out, "%s: TXT record at %s does not contain the expected token\n", org.CustomDomainValue(), name)
		return errNotVerified
	}

	if c.DryRun {
		fmt.Fprintf(ctx.Out, "%s: token found (dry run, not recorded)\n", org.CustomDomainValue())
		return nil
	}
	updated, err := store.MarkDomainVerified(ctx, org.ID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record verification: %w", err)
	}
	fmt.Fprintf(ctx.Out, "%s: verified\n", updated.CustomDomainValue())
	return nil
}

// containsToken reports whether any TXT string carries token. Providers
// sometimes quote or pad published values.
func containsToken(records []string, token string) bool {
	for _, r := range records {
		if strings.Trim(strings.TrimSpace(r), `"`) == token {
			return true
		}
	}
	return false
}
