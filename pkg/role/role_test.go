package role

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/azctl/azctl/pkg/errors"
)

const (
	sub        = "00000000-0000-0000-0000-000000000001"
	readerGUID = "acdd72a7-3385-48ef-bd42-f606fba81ae7"
	readerID   = "/subscriptions/" + sub + "/providers/Microsoft.Authorization/roleDefinitions/" + readerGUID
	rgScope    = "/subscriptions/" + sub + "/resourceGroups/rg"
)

type mockClient struct {
	mock.Mock
}

func (m *mockClient) CreateAssignment(ctx context.Context, scope, name string, a Assignment) (*Assignment, error) {
	args := m.Called(ctx, scope, name, a)
	out, _ := args.Get(0).(*Assignment)
	return out, args.Error(1)
}

func (m *mockClient) ListAssignments(ctx context.Context, scope, filter string) ([]Assignment, error) {
	args := m.Called(ctx, scope, filter)
	out, _ := args.Get(0).([]Assignment)
	return out, args.Error(1)
}

func (m *mockClient) DeleteAssignment(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockClient) ListDefinitions(ctx context.Context, scope, filter string) ([]Definition, error) {
	args := m.Called(ctx, scope, filter)
	out, _ := args.Get(0).([]Definition)
	return out, args.Error(1)
}

func TestBuildScope(t *testing.T) {
	tests := []struct {
		name    string
		rg      string
		scope   string
		want    string
		wantErr string
	}{
		{name: "subscription", want: "/subscriptions/" + sub},
		{name: "resource group", rg: "rg", want: rgScope},
		{name: "explicit scope", scope: "/subscriptions/x/resourceGroups/y", want: "/subscriptions/x/resourceGroups/y"},
		{name: "both", rg: "rg", scope: "/s", wantErr: `Resource group "rg" is redundant because scope is supplied`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildScope(sub, tt.rg, tt.scope)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Equal(t, tt.wantErr, errors.Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveRoleID(t *testing.T) {
	ctx := context.Background()

	t.Run("full id", func(t *testing.T) {
		got, err := ResolveRoleID(ctx, &mockClient{}, readerID, rgScope, sub)
		require.NoError(t, err)
		assert.Equal(t, readerID, got)
	})

	t.Run("guid", func(t *testing.T) {
		got, err := ResolveRoleID(ctx, &mockClient{}, readerGUID, rgScope, sub)
		require.NoError(t, err)
		assert.Equal(t, readerID, got)
	})

	t.Run("name", func(t *testing.T) {
		defs := &mockClient{}
		defs.On("ListDefinitions", ctx, rgScope, "roleName eq 'Reader'").
			Return([]Definition{{ID: readerID, RoleName: "Reader"}}, nil)
		got, err := ResolveRoleID(ctx, defs, "Reader", rgScope, sub)
		require.NoError(t, err)
		assert.Equal(t, readerID, got)
	})

	t.Run("missing", func(t *testing.T) {
		defs := &mockClient{}
		defs.On("ListDefinitions", ctx, rgScope, "roleName eq 'Nope'").Return([]Definition{}, nil)
		_, err := ResolveRoleID(ctx, defs, "Nope", rgScope, sub)
		require.Error(t, err)
		assert.Equal(t, "Role 'Nope' doesn't exist.", errors.Message(err))
	})

	t.Run("ambiguous", func(t *testing.T) {
		defs := &mockClient{}
		defs.On("ListDefinitions", ctx, rgScope, "roleName eq 'Dup'").
			Return([]Definition{{ID: "/a"}, {ID: "/b"}}, nil)
		_, err := ResolveRoleID(ctx, defs, "Dup", rgScope, sub)
		require.Error(t, err)
		assert.Contains(t, errors.Message(err), "More than one role matches the given name 'Dup'")
	})
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates", func(t *testing.T) {
		client := &mockClient{}
		client.On("CreateAssignment", ctx, rgScope, mock.AnythingOfType("string"), Assignment{
			Scope:            rgScope,
			PrincipalID:      "p1",
			RoleDefinitionID: readerID,
		}).Return(&Assignment{ID: rgScope + "/providers/Microsoft.Authorization/roleAssignments/a1"}, nil)

		got, err := Create(ctx, client, client, CreateOptions{Subscription: sub, ResourceGroup: "rg", Role: readerGUID, Assignee: "p1"})
		require.NoError(t, err)
		require.NotNil(t, got)
		client.AssertExpectations(t)
	})

	t.Run("already exists", func(t *testing.T) {
		client := &mockClient{}
		client.On("CreateAssignment", ctx, rgScope, mock.Anything, mock.Anything).
			Return(nil, errors.New(errors.ErrCodeInvalidArgumentValue, "(RoleAssignmentExists) The role assignment already exists."))

		got, err := Create(ctx, client, client, CreateOptions{Subscription: sub, ResourceGroup: "rg", Role: readerGUID, Assignee: "p1"})
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("assignee required", func(t *testing.T) {
		_, err := Create(ctx, &mockClient{}, &mockClient{}, CreateOptions{Subscription: sub, Role: readerGUID})
		assert.True(t, errors.IsCode(err, errors.ErrCodeRequiredArgumentMissing))
	})
}

func TestList(t *testing.T) {
	ctx := context.Background()
	subScope := "/subscriptions/" + sub
	assignments := func() []Assignment {
		return []Assignment{
			{ID: "a1", Scope: rgScope, PrincipalID: "p1", RoleDefinitionID: readerID},
			{ID: "a2", Scope: subScope, PrincipalID: "p1", RoleDefinitionID: readerID},
			{ID: "a3", Scope: rgScope + "/providers/Microsoft.Storage/storageAccounts/sa", PrincipalID: "p1", RoleDefinitionID: "/other"},
		}
	}

	tests := []struct {
		name    string
		opts    ListOptions
		scope   string
		filter  string
		wantIDs []string
	}{
		{
			name:    "exact scope",
			opts:    ListOptions{Subscription: sub, ResourceGroup: "rg"},
			scope:   rgScope,
			filter:  "atScope()",
			wantIDs: []string{"a1"},
		},
		{
			name:    "inherited",
			opts:    ListOptions{Subscription: sub, ResourceGroup: "rg", IncludeInherited: true},
			scope:   rgScope,
			filter:  "atScope()",
			wantIDs: []string{"a1", "a2"},
		},
		{
			name:    "all by assignee",
			opts:    ListOptions{Subscription: sub, All: true, Assignee: "p1"},
			filter:  "principalId eq 'p1'",
			wantIDs: []string{"a1", "a2", "a3"},
		},
		{
			name:    "all by role",
			opts:    ListOptions{Subscription: sub, All: true, Role: readerID},
			wantIDs: []string{"a1", "a2"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &mockClient{}
			client.On("ListAssignments", ctx, tt.scope, tt.filter).Return(assignments(), nil)
			defScope := tt.scope
			if defScope == "" {
				defScope = subScope
			}
			client.On("ListDefinitions", ctx, defScope, "").
				Return([]Definition{{ID: readerID, RoleName: "Reader"}}, nil)

			got, err := List(ctx, client, client, tt.opts)
			require.NoError(t, err)
			ids := make([]string, 0, len(got))
			for _, a := range got {
				ids = append(ids, a.ID)
				if a.RoleDefinitionID == readerID {
					assert.Equal(t, "Reader", a.RoleDefinitionName)
				}
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("all with scope", func(t *testing.T) {
		_, err := List(ctx, &mockClient{}, &mockClient{}, ListOptions{Subscription: sub, All: true, ResourceGroup: "rg"})
		require.Error(t, err)
		assert.Equal(t, "group or scope are not required when --all is used", errors.Message(err))
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("by ids", func(t *testing.T) {
		client := &mockClient{}
		client.On("DeleteAssignment", ctx, "a1").Return(nil)
		client.On("DeleteAssignment", ctx, "a2").Return(nil)
		got, err := Delete(ctx, client, client, DeleteOptions{IDs: []string{"a1", "a2"}})
		require.NoError(t, err)
		assert.Equal(t, []string{"a1", "a2"}, got)
		client.AssertExpectations(t)
	})

	t.Run("ids with other arguments", func(t *testing.T) {
		_, err := Delete(ctx, &mockClient{}, &mockClient{}, DeleteOptions{IDs: []string{"a1"}, Role: "Reader"})
		require.Error(t, err)
		assert.Equal(t, "When assignment ids are used, other parameter values are not required", errors.Message(err))
	})

	t.Run("by search", func(t *testing.T) {
		client := &mockClient{}
		client.On("ListAssignments", ctx, "", "principalId eq 'p1'").
			Return([]Assignment{{ID: "a1", Scope: rgScope, PrincipalID: "p1", RoleDefinitionID: readerID}}, nil)
		client.On("DeleteAssignment", ctx, "a1").Return(nil)

		got, err := Delete(ctx, client, client, DeleteOptions{Subscription: sub, ResourceGroup: "rg", Assignee: "p1"})
		require.NoError(t, err)
		assert.Equal(t, []string{"a1"}, got)
	})

	t.Run("nothing matched", func(t *testing.T) {
		client := &mockClient{}
		client.On("ListAssignments", ctx, rgScope, "atScope()").Return([]Assignment{}, nil)
		_, err := Delete(ctx, client, client, DeleteOptions{Subscription: sub, ResourceGroup: "rg"})
		require.Error(t, err)
		assert.Equal(t, "No matched assignments were found to delete", errors.Message(err))
	})
}
