package rbac

const (
	PermQuizTake          = "quiz:take"
	PermQuizVerify        = "quiz:verify"
	PermAttemptSubmit     = "attempt:submit"
	PermAttemptViewOwn    = "attempt:view-own"
	PermLeaderboardView   = "leaderboard:view"
	PermLeaderboardExport = "leaderboard:export"
	PermPoolView          = "pool:view"
	PermPracticeStart     = "pool:practice"
	// PermBypassEntitlement lets staff open any collection's quizzes.
	PermBypassEntitlement = "collection:any"
)

var RolePermissions = map[string][]string{
	"student": {
		PermQuizTake,
		PermQuizVerify,
		PermAttemptSubmit,
		PermAttemptViewOwn,
		PermLeaderboardView,
		"pool:*",
	},
	"teacher": {
		PermQuizTake,
		PermQuizVerify,
		PermAttemptViewOwn,
		"leaderboard:*",
		PermBypassEntitlement,
	},
	"admin": {
		"*", // everything
	},
}
