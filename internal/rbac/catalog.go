package rbac

// Role names known to the platform. Roles are provisioned once by the seeder;
// no user-facing flow creates new ones.
const (
	RoleSuperuser = "SUPERUSER"
	RoleTeacher   = "TEACHER"
	RoleUser      = "USER"
)

// Permission names. These are the only capabilities the policy engine ever
// evaluates; the set is fixed at build time.
const (
	PermCreateSuperuser = "CREATE_SUPERUSER"
	PermCreateTeacher   = "CREATE_TEACHER"
	PermCreateUser      = "CREATE_USER"

	PermGetRoles      = "GET_ROLES"
	PermGetUsersList  = "GET_USERS_LIST"
	PermChangeProfile = "CHANGE_ANOTHER_USERS_PROFILE"
	PermChangePasswd  = "CHANGE_ANOTHER_USERS_PASSWORD"
	PermBlockUsers    = "BLOCK_USERS"

	PermCreateObject  = "CREATE_OBJECT"
	PermEditObject    = "EDIT_OBJECT"
	PermBlockObject   = "BLOCK_OBJECT"
	PermGetObject     = "GET_OBJECT"
	PermGetObjectList = "GET_OBJECT_LIST"
)

// CatalogRole describes one seedable role.
type CatalogRole struct {
	Name        string
	AccessLevel int
	Description string
}

// Catalog is the static role/permission configuration loaded into the store
// by the seeder. It is process-wide and immutable after startup.
type Catalog struct {
	Roles       []CatalogRole
	Permissions map[string]string
	Grants      map[string][]string
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() Catalog {
	return Catalog{
		Roles: []CatalogRole{
			{Name: RoleSuperuser, AccessLevel: 1, Description: "Administrator with full platform access"},
			{Name: RoleTeacher, AccessLevel: 2, Description: "Teacher, manages learning materials but not the platform"},
			{Name: RoleUser, AccessLevel: 3, Description: "Student, read-only access to materials"},
		},
		Permissions: map[string]string{
			PermCreateSuperuser: "Provision new administrator accounts",
			PermCreateTeacher:   "Provision new teacher accounts",
			PermCreateUser:      "Provision new student accounts",

			PermGetRoles:      "List the available roles",
			PermGetUsersList:  "List all user accounts",
			PermChangeProfile: "Edit profiles of users in a lower tier",
			PermChangePasswd:  "Change passwords of users in a lower tier",
			PermBlockUsers:    "Block or unblock users in a lower tier",

			PermCreateObject:  "Create any content object",
			PermEditObject:    "Edit any content object",
			PermBlockObject:   "Block (soft-delete) any content object",
			PermGetObject:     "Fetch a single content object",
			PermGetObjectList: "List content objects",
		},
		Grants: map[string][]string{
			RoleSuperuser: {
				PermCreateSuperuser, PermCreateTeacher, PermCreateUser,
				PermGetRoles, PermGetUsersList,
				PermChangeProfile, PermChangePasswd, PermBlockUsers,
				PermCreateObject, PermEditObject, PermBlockObject,
				PermGetObject, PermGetObjectList,
			},
			RoleTeacher: {
				PermCreateUser,
				PermCreateObject, PermEditObject, PermBlockObject,
				PermGetObject, PermGetObjectList,
			},
			RoleUser: {
				PermGetObject, PermGetObjectList,
			},
		},
	}
}

// creationPermissions maps a target role to the permission required to
// provision a principal with that role. Granting a higher tier always demands
// a distinct, more privileged permission.
var creationPermissions = map[string]string{
	RoleSuperuser: PermCreateSuperuser,
	RoleTeacher:   PermCreateTeacher,
	RoleUser:      PermCreateUser,
}

// CreatableRoles returns the allow-list of roles a principal may be created
// with through the API.
func CreatableRoles() []string {
	return []string{RoleSuperuser, RoleTeacher, RoleUser}
}
