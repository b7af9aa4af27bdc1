package bdd

import (
	"os"
	"testing"

	"github.com/cucumber/godog"

	"github.com/andrescamacho/spacetraders-fleet/test/bdd/steps"
	"github.com/andrescamacho/spacetraders-fleet/test/helpers"
)

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/domain", "features/application"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	// Domain layer scenarios
	steps.InitializeStrategyScenario(sc)
	steps.InitializeSafeSellScenario(sc)
	steps.InitializeMultihopScenario(sc)

	// Application layer scenarios (these use the shared test database)
	steps.InitializeBackoffScenario(sc)
}

func TestMain(m *testing.M) {
	// One shared database for the whole suite; scenarios truncate between
	// runs instead of opening their own connection.
	if err := helpers.InitializeSharedTestDB(); err != nil {
		panic("failed to initialize shared test database: " + err.Error())
	}

	code := m.Run()
	helpers.CloseSharedTestDB()
	os.Exit(code)
}
