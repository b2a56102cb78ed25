package contract

// Named tags shared by the backend and escrow services. Field names match the
// deployed service declaration and must not change.
var (
	Image     = Alias("Image", Blob)
	Link      = Alias("Link", Text)
	UserID    = Alias("UserId", Principal)
	ProjectID = Alias("ProjectId", Text)

	NewProfileType = Record("NewProfile", Fields{
		"bio":       Text,
		"img":       Image,
		"lastName":  Text,
		"firstName": Text,
	})

	ProfileType = Record("Profile", Fields{
		"id":        UserID,
		"bio":       Text,
		"img":       Image,
		"lastName":  Text,
		"firstName": Text,
	})

	NewProjectType = Record("NewProject", newProjectFields())

	ProjectType = Record("Project", projectFields())

	ProjectWithOwnerType = Record("ProjectWithOwner", Fields{
		"owner":   ProfileType,
		"project": ProjectType,
	})

	ProjectStatsType = Record("ProjectStats", Fields{
		"nftsSold":    Nat,
		"nftPriceE8S": Nat,
	})
)

func newProjectFields() Fields {
	return Fields{
		"title":          Text,
		"wetransferLink": Link,
		"goal":           Float64,
		"twitterLink":    Link,
		"tags":           Vec(Text),
		"description":    Text,
		"discordLink":    Link,
		"story":          Text,
		"category":       Text,
		"coverImg":       Image,
		"nftVolume":      Nat,
		"walletId":       Text,
	}
}

func projectFields() Fields {
	f := newProjectFields()
	f["id"] = ProjectID
	f["owner"] = UserID
	return f
}

// Backend operation names.
const (
	OpCreateFirstProject = "createFirstProject"
	OpCreateProfile      = "createProfile"
	OpCreateProject      = "createProject"
	OpGetMyProfile       = "getMyProfile"
	OpGetMyProjects      = "getMyProjects"
	OpGetOwnID           = "getOwnId"
	OpGetOwnIDText       = "getOwnIdText"
	OpGetProfile         = "getProfile"
	OpGetProjects        = "getProjects"
	OpGreet              = "greet"
	OpHealthcheck        = "healthcheck"
	OpListProjects       = "listProjects"
	OpSearchProfiles     = "searchProfiles"
	OpUpdateProfile      = "updateProfile"

	OpGetProjectStats = "getProjectStats"
)

// Backend is the crowdfunding backend service.
var Backend = MustService("backend",
	Func(OpCreateFirstProject, Types(NewProfileType, NewProjectType), Types(ProjectType), ModeCall),
	Func(OpCreateProfile, Types(NewProfileType), nil, ModeCall),
	Func(OpCreateProject, Types(NewProjectType), Types(ProjectType), ModeCall),
	Func(OpGetMyProfile, nil, Types(ProfileType), ModeQuery),
	Func(OpGetMyProjects, nil, Types(Vec(ProjectType)), ModeQuery),
	Func(OpGetOwnID, nil, Types(UserID), ModeQuery),
	Func(OpGetOwnIDText, nil, Types(Text), ModeQuery),
	Func(OpGetProfile, Types(UserID), Types(ProfileType), ModeQuery),
	Func(OpGetProjects, Types(UserID), Types(Vec(ProjectType)), ModeQuery),
	Func(OpGreet, nil, Types(Text), ModeCall),
	Func(OpHealthcheck, nil, Types(Bool), ModeCall),
	Func(OpListProjects, nil, Types(Vec(ProjectWithOwnerType)), ModeQuery),
	Func(OpSearchProfiles, Types(Text), Types(Vec(ProfileType)), ModeQuery),
	Func(OpUpdateProfile, Types(ProfileType), nil, ModeCall),
)

// Escrow is the NFT escrow service that tracks sales per project.
var Escrow = MustService("escrow",
	Func(OpGetProjectStats, Types(Nat), Types(ProjectStatsType), ModeQuery),
)

// Lookup resolves a service by its wire name.
func Lookup(name string) (*Service, bool) {
	switch name {
	case Backend.Name():
		return Backend, true
	case Escrow.Name():
		return Escrow, true
	default:
		return nil, false
	}
}
