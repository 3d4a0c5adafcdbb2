package role

import (
	"context"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/authorization/armauthorization/v2"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/errors"
)

// SDKClient implements AssignmentClient and DefinitionLister with the Azure SDK.
type SDKClient struct {
	subscription string
	assignments  *armauthorization.RoleAssignmentsClient
	definitions  *armauthorization.RoleDefinitionsClient
}

// NewSDKClient creates an SDKClient for subscription.
func NewSDKClient(subscription string, cred azcore.TokenCredential, opts *arm.ClientOptions) (*SDKClient, error) {
	factory, err := armauthorization.NewClientFactory(subscription, cred, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, "failed to create authorization client", err)
	}
	return &SDKClient{
		subscription: subscription,
		assignments:  factory.NewRoleAssignmentsClient(),
		definitions:  factory.NewRoleDefinitionsClient(),
	}, nil
}

func (c *SDKClient) CreateAssignment(ctx context.Context, scope, name string, a Assignment) (*Assignment, error) {
	props := &armauthorization.RoleAssignmentProperties{
		PrincipalID:      to.Ptr(a.PrincipalID),
		RoleDefinitionID: to.Ptr(a.RoleDefinitionID),
	}
	if a.PrincipalType != "" {
		props.PrincipalType = to.Ptr(armauthorization.PrincipalType(a.PrincipalType))
	}
	resp, err := c.assignments.Create(ctx, scope, name, armauthorization.RoleAssignmentCreateParameters{Properties: props}, nil)
	if err != nil {
		return nil, errors.FromAzureError(err)
	}
	created := fromSDKAssignment(&resp.RoleAssignment)
	return &created, nil
}

func (c *SDKClient) ListAssignments(ctx context.Context, scope, filter string) ([]Assignment, error) {
	if scope == "" {
		scope = armid.SubscriptionScope(c.subscription)
	}
	opts := &armauthorization.RoleAssignmentsClientListForScopeOptions{}
	if filter != "" {
		opts.Filter = to.Ptr(filter)
	}

	var out []Assignment
	pager := c.assignments.NewListForScopePager(scope, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.FromAzureError(err)
		}
		for _, ra := range page.Value {
			out = append(out, fromSDKAssignment(ra))
		}
	}
	return out, nil
}

func (c *SDKClient) DeleteAssignment(ctx context.Context, id string) error {
	if _, err := c.assignments.DeleteByID(ctx, id, nil); err != nil {
		return errors.FromAzureError(err)
	}
	return nil
}

func (c *SDKClient) ListDefinitions(ctx context.Context, scope, filter string) ([]Definition, error) {
	opts := &armauthorization.RoleDefinitionsClientListOptions{}
	if filter != "" {
		opts.Filter = to.Ptr(filter)
	}

	var out []Definition
	pager := c.definitions.NewListPager(scope, opts)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errors.FromAzureError(err)
		}
		for _, d := range page.Value {
			def := Definition{ID: deref(d.ID), Name: deref(d.Name)}
			if d.Properties != nil {
				def.RoleName = deref(d.Properties.RoleName)
			}
			out = append(out, def)
		}
	}
	return out, nil
}

func fromSDKAssignment(ra *armauthorization.RoleAssignment) Assignment {
	a := Assignment{ID: deref(ra.ID), Name: deref(ra.Name)}
	if p := ra.Properties; p != nil {
		a.Scope = deref(p.Scope)
		a.PrincipalID = deref(p.PrincipalID)
		a.RoleDefinitionID = deref(p.RoleDefinitionID)
		if p.PrincipalType != nil {
			a.PrincipalType = string(*p.PrincipalType)
		}
	}
	return a
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
