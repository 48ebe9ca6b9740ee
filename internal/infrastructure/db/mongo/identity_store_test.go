package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hits/carschool/internal/core/domain"
	"github.com/hits/carschool/internal/core/ports"
)

func TestIdentityFilter(t *testing.T) {
	t.Run("empty filter matches everything", func(t *testing.T) {
		assert.Empty(t, identityFilter(ports.IdentityFilter{}))
	})

	t.Run("name matches either name field literally", func(t *testing.T) {
		q := identityFilter(ports.IdentityFilter{Name: "a.b"})
		or, ok := q["$or"].(bson.A)
		require.True(t, ok)
		require.Len(t, or, 2)
		re := or[0].(bson.M)["first_name"].(primitive.Regex)
		assert.Equal(t, `a\.b`, re.Pattern)
		assert.Equal(t, "i", re.Options)
	})

	t.Run("role and email", func(t *testing.T) {
		q := identityFilter(ports.IdentityFilter{Email: "mail", Role: domain.RoleTeacher})
		assert.Equal(t, "TEACHER", q["roles"])
		assert.Equal(t, "mail", q["email"].(primitive.Regex).Pattern)
	})
}

func TestIdentityDocument_RoundTrip(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	in := &domain.Identity{
		ID:           7,
		FirstName:    "Ivan",
		LastName:     "Petrov",
		Age:          30,
		Phone:        "+79990000000",
		Email:        "ivan@example.com",
		PasswordHash: "digest",
		Roles:        domain.NewRoleSet(domain.RoleTeacher, domain.RoleStudent),
		Active:       true,
		Version:      3,
		CreatedAt:    created,
		UpdatedAt:    created.Add(time.Hour),
	}

	doc := toIdentityDocument(in)
	assert.Equal(t, []string{"STUDENT", "TEACHER"}, doc.Roles)
	assert.Equal(t, created.Unix(), doc.CreatedAt)

	out, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestIdentityDocument_DropsUnknownRoles(t *testing.T) {
	doc := identityDocument{ID: 1, Roles: []string{"STUDENT", "ADMIN"}}
	out, err := doc.toDomain()
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSet{domain.RoleStudent}, out.Roles)
}

func TestIdentityDocument_RejectsEmptyRoleSet(t *testing.T) {
	for name, roles := range map[string][]string{
		"only unknown roles": {"ADMIN"},
		"no roles":           nil,
	} {
		t.Run(name, func(t *testing.T) {
			out, err := identityDocument{ID: 5, Roles: roles}.toDomain()
			require.ErrorIs(t, err, ErrCorruptIdentity)
			assert.Nil(t, out)
		})
	}
}
