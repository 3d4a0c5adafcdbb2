// Package role manages Azure role assignments.
package role

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/azctl/azctl/pkg/armid"
	"github.com/azctl/azctl/pkg/errors"
)

var roleDefinitionIDPattern = regexp.MustCompile(`(?i)^/subscriptions/.+/providers/Microsoft.Authorization/roleDefinitions/`)

// Assignment is a role assignment as shown to the user.
type Assignment struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	Scope              string `json:"scope" yaml:"scope"`
	PrincipalID        string `json:"principalId" yaml:"principalId"`
	PrincipalType      string `json:"principalType,omitempty" yaml:"principalType,omitempty"`
	RoleDefinitionID   string `json:"roleDefinitionId" yaml:"roleDefinitionId"`
	RoleDefinitionName string `json:"roleDefinitionName,omitempty" yaml:"roleDefinitionName,omitempty"`
}

// Definition is a role definition.
type Definition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	RoleName string `json:"roleName"`
}

// DefinitionLister lists role definitions visible at a scope.
type DefinitionLister interface {
	ListDefinitions(ctx context.Context, scope, filter string) ([]Definition, error)
}

// AssignmentClient creates, lists and deletes role assignments.
type AssignmentClient interface {
	CreateAssignment(ctx context.Context, scope, name string, a Assignment) (*Assignment, error)
	// ListAssignments lists assignments at or below scope. An empty scope lists the
	// whole subscription.
	ListAssignments(ctx context.Context, scope, filter string) ([]Assignment, error)
	DeleteAssignment(ctx context.Context, id string) error
}

// BuildScope returns the explicit scope, the resource group scope or the subscription
// scope, in that order. A resource group next to an explicit scope is an error.
func BuildScope(subscription, resourceGroup, scope string) (string, error) {
	if scope != "" {
		if resourceGroup != "" {
			return "", errors.Newf(errors.ErrCodeCLI,
				"Resource group \"%s\" is redundant because scope is supplied", resourceGroup)
		}
		return scope, nil
	}
	if resourceGroup != "" {
		return armid.ResourceGroupScope(subscription, resourceGroup), nil
	}
	return armid.SubscriptionScope(subscription), nil
}

// ResolveRoleID turns a role name, a role GUID or a full role definition ID into a role
// definition ID.
func ResolveRoleID(ctx context.Context, defs DefinitionLister, role, scope, subscription string) (string, error) {
	if roleDefinitionIDPattern.MatchString(role) {
		return role, nil
	}
	if _, err := uuid.Parse(role); err == nil {
		return fmt.Sprintf("/subscriptions/%s/providers/Microsoft.Authorization/roleDefinitions/%s", subscription, role), nil
	}

	found, err := defs.ListDefinitions(ctx, scope, fmt.Sprintf("roleName eq '%s'", role))
	if err != nil {
		return "", err
	}
	switch len(found) {
	case 0:
		return "", errors.Newf(errors.ErrCodeResourceNotFound, "Role '%s' doesn't exist.", role)
	case 1:
		return found[0].ID, nil
	default:
		ids := make([]string, 0, len(found))
		for _, d := range found {
			ids = append(ids, d.ID)
		}
		return "", errors.Newf(errors.ErrCodeCLI,
			"More than one role matches the given name '%s'. Please pick a value from '%s'", role, strings.Join(ids, ", "))
	}
}

// CreateOptions describes a new role assignment.
type CreateOptions struct {
	Subscription  string
	ResourceGroup string
	Scope         string
	Role          string
	// Assignee is the object ID of the principal.
	Assignee      string
	PrincipalType string
}

// Create assigns a role to a principal under a new random assignment name. An
// assignment that already exists is not an error; nil is returned for it.
func Create(ctx context.Context, client AssignmentClient, defs DefinitionLister, opts CreateOptions) (*Assignment, error) {
	if opts.Assignee == "" {
		return nil, errors.New(errors.ErrCodeRequiredArgumentMissing, "usage error: --assignee OBJECT_ID")
	}
	scope, err := BuildScope(opts.Subscription, opts.ResourceGroup, opts.Scope)
	if err != nil {
		return nil, err
	}
	roleID, err := ResolveRoleID(ctx, defs, opts.Role, scope, opts.Subscription)
	if err != nil {
		return nil, err
	}

	created, err := client.CreateAssignment(ctx, scope, uuid.NewString(), Assignment{
		Scope:            scope,
		PrincipalID:      opts.Assignee,
		PrincipalType:    opts.PrincipalType,
		RoleDefinitionID: roleID,
	})
	if err != nil {
		if isAlreadyExists(err) {
			slog.Info("role assignment already exists", "scope", scope, "role", roleID, "assignee", opts.Assignee)
			return nil, nil
		}
		return nil, err
	}
	return created, nil
}

// ListOptions narrows List.
type ListOptions struct {
	Subscription     string
	ResourceGroup    string
	Scope            string
	Assignee         string
	Role             string
	IncludeInherited bool
	All              bool
}

// List returns the matching role assignments with their role names filled in.
func List(ctx context.Context, client AssignmentClient, defs DefinitionLister, opts ListOptions) ([]Assignment, error) {
	scope := ""
	if opts.All {
		if opts.ResourceGroup != "" || opts.Scope != "" {
			return nil, errors.New(errors.ErrCodeCLI, "group or scope are not required when --all is used")
		}
	} else {
		s, err := BuildScope(opts.Subscription, opts.ResourceGroup, opts.Scope)
		if err != nil {
			return nil, err
		}
		scope = s
	}

	assignments, err := search(ctx, client, defs, opts.Subscription, scope, opts.Assignee, opts.Role, opts.IncludeInherited)
	if err != nil || len(assignments) == 0 {
		return []Assignment{}, err
	}

	definitionScope := scope
	if definitionScope == "" {
		definitionScope = armid.SubscriptionScope(opts.Subscription)
	}
	roleDefs, err := defs.ListDefinitions(ctx, definitionScope, "")
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(roleDefs))
	for _, d := range roleDefs {
		names[strings.ToLower(d.ID)] = d.RoleName
	}
	for i := range assignments {
		if assignments[i].RoleDefinitionName == "" {
			assignments[i].RoleDefinitionName = names[strings.ToLower(assignments[i].RoleDefinitionID)]
		}
	}
	return assignments, nil
}

// DeleteOptions selects the assignments Delete removes.
type DeleteOptions struct {
	IDs              []string
	Subscription     string
	ResourceGroup    string
	Scope            string
	Assignee         string
	Role             string
	IncludeInherited bool
}

// Delete removes assignments by ID or by search. It returns the deleted IDs.
func Delete(ctx context.Context, client AssignmentClient, defs DefinitionLister, opts DeleteOptions) ([]string, error) {
	if len(opts.IDs) > 0 {
		if opts.Assignee != "" || opts.Role != "" || opts.ResourceGroup != "" || opts.Scope != "" || opts.IncludeInherited {
			return nil, errors.New(errors.ErrCodeCLI, "When assignment ids are used, other parameter values are not required")
		}
		for _, id := range opts.IDs {
			if err := client.DeleteAssignment(ctx, id); err != nil {
				return nil, err
			}
		}
		return opts.IDs, nil
	}

	scope, err := BuildScope(opts.Subscription, opts.ResourceGroup, opts.Scope)
	if err != nil {
		return nil, err
	}
	assignments, err := search(ctx, client, defs, opts.Subscription, scope, opts.Assignee, opts.Role, opts.IncludeInherited)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, errors.New(errors.ErrCodeResourceNotFound, "No matched assignments were found to delete")
	}

	deleted := make([]string, 0, len(assignments))
	for _, a := range assignments {
		if err := client.DeleteAssignment(ctx, a.ID); err != nil {
			return deleted, err
		}
		deleted = append(deleted, a.ID)
	}
	return deleted, nil
}

// search picks the most selective server-side filter and applies the rest locally.
func search(ctx context.Context, client AssignmentClient, defs DefinitionLister, subscription, scope, assignee, role string, includeInherited bool) ([]Assignment, error) {
	var (
		assignments []Assignment
		err         error
	)
	switch {
	case assignee != "":
		assignments, err = client.ListAssignments(ctx, "", fmt.Sprintf("principalId eq '%s'", assignee))
	case scope != "":
		assignments, err = client.ListAssignments(ctx, scope, "atScope()")
	default:
		assignments, err = client.ListAssignments(ctx, "", "")
	}
	if err != nil {
		return nil, err
	}

	filtered := assignments[:0]
	for _, a := range assignments {
		if scope == "" ||
			strings.EqualFold(a.Scope, scope) ||
			includeInherited && strings.HasPrefix(strings.ToLower(scope), strings.ToLower(a.Scope)) {
			filtered = append(filtered, a)
		}
	}
	assignments = filtered

	if role != "" && len(assignments) > 0 {
		roleID, err := ResolveRoleID(ctx, defs, role, scope, subscription)
		if err != nil {
			return nil, err
		}
		byRole := assignments[:0]
		for _, a := range assignments {
			if strings.EqualFold(a.RoleDefinitionID, roleID) {
				byRole = append(byRole, a)
			}
		}
		assignments = byRole
	}
	return assignments, nil
}

func isAlreadyExists(err error) bool {
	return errors.IsCode(err, errors.ErrCodeInvalidArgumentValue) &&
		strings.Contains(strings.ToLower(errors.Message(err)), "already exists")
}
