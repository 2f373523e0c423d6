package support

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/cucumber/godog"
)

// lookup resolves a dotted path such as "pitch_point.0" or "result.matrix.2.2" in doc.
func lookup(doc interface{}, path string) (interface{}, error) {
	cur := doc
	for _, key := range strings.Split(path, ".") {
		switch node := cur.(type) {
		case map[string]interface{}:
			v, ok := node[key]
			if !ok {
				return nil, fmt.Errorf("field %q not found in %s", key, path)
			}
			cur = v
		case []interface{}:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(node) {
				return nil, fmt.Errorf("index %q out of range in %s", key, path)
			}
			cur = node[i]
		default:
			return nil, fmt.Errorf("cannot descend into %T at %q in %s", cur, key, path)
		}
	}
	return cur, nil
}

func (testCtx *TestContext) field(path string) (interface{}, error) {
	if testCtx.LastJSON == nil {
		return nil, fmt.Errorf("last response carried no JSON body: %s", string(testCtx.LastBody))
	}
	return lookup(testCtx.LastJSON, path)
}

func (testCtx *TestContext) number(path string) (float64, error) {
	v, err := testCtx.field(path)
	if err != nil {
		return 0, err
	}
	f, ok := v.(float64)
	if !ok {
		return 0, fmt.Errorf("field %s is %T, not a number", path, v)
	}
	return f, nil
}

// theResponseStatusShouldBe checks the HTTP status code.
func (testCtx *TestContext) theResponseStatusShouldBe(status int) error {
	if testCtx.LastStatusCode != status {
		return fmt.Errorf("expected status %d, got %d: %s", status, testCtx.LastStatusCode, string(testCtx.LastBody))
	}
	return nil
}

// theJSONFieldShouldBe compares the printed form of a field, so it covers strings and booleans.
func (testCtx *TestContext) theJSONFieldShouldBe(path, expected string) error {
	v, err := testCtx.field(path)
	if err != nil {
		return err
	}
	if got := fmt.Sprint(v); got != expected {
		return fmt.Errorf("expected %s to be %q, got %q", path, expected, got)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldContain(path, substr string) error {
	v, err := testCtx.field(path)
	if err != nil {
		return err
	}
	if !strings.Contains(fmt.Sprint(v), substr) {
		return fmt.Errorf("expected %s to contain %q, got %q", path, substr, fmt.Sprint(v))
	}
	return nil
}

// theJSONFieldShouldBeWithinOf checks |field - expected| <= tolerance.
func (testCtx *TestContext) theJSONFieldShouldBeWithinOf(path string, tolerance, expected float64) error {
	got, err := testCtx.number(path)
	if err != nil {
		return err
	}
	if math.Abs(got-expected) > tolerance {
		return fmt.Errorf("expected %s to be within %g of %g, got %g", path, tolerance, expected, got)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldBeApproximately(path string, expected float64) error {
	return testCtx.theJSONFieldShouldBeWithinOf(path, 1e-6, expected)
}

func (testCtx *TestContext) theJSONFieldShouldBeLessThan(path string, limit float64) error {
	got, err := testCtx.number(path)
	if err != nil {
		return err
	}
	if got >= limit {
		return fmt.Errorf("expected %s to be less than %g, got %g", path, limit, got)
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldHaveItems(path string, n int) error {
	v, err := testCtx.field(path)
	if err != nil {
		return err
	}
	items, ok := v.([]interface{})
	if !ok {
		return fmt.Errorf("field %s is %T, not an array", path, v)
	}
	if len(items) != n {
		return fmt.Errorf("expected %s to have %d items, got %d", path, n, len(items))
	}
	return nil
}

func (testCtx *TestContext) theJSONFieldShouldNotBePresent(path string) error {
	if _, err := testCtx.field(path); err == nil {
		return fmt.Errorf("expected %s to be absent", path)
	}
	return nil
}

func (testCtx *TestContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := testCtx.LastHeaders.Get(name); got != expected {
		return fmt.Errorf("expected header %s to be %q, got %q", name, expected, got)
	}
	return nil
}

func (testCtx *TestContext) theResponseBodyShouldContain(substr string) error {
	if !strings.Contains(string(testCtx.LastBody), substr) {
		return fmt.Errorf("expected body to contain %q, got %q", substr, string(testCtx.LastBody))
	}
	return nil
}

// RegisterResponseSteps registers assertions on the last HTTP or WebSocket response.
func (testCtx *TestContext) RegisterResponseSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the response status should be (\d+)$`, testCtx.theResponseStatusShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should be "([^"]*)"$`, testCtx.theJSONFieldShouldBe)
	sc.Step(`^the JSON field "([^"]*)" should contain "([^"]*)"$`, testCtx.theJSONFieldShouldContain)
	sc.Step(`^the JSON field "([^"]*)" should be approximately (-?\d+(?:\.\d+)?)$`,
		testCtx.theJSONFieldShouldBeApproximately)
	sc.Step(`^the JSON field "([^"]*)" should be within (\d+(?:\.\d+)?(?:e-?\d+)?) of (-?\d+(?:\.\d+)?)$`,
		testCtx.theJSONFieldShouldBeWithinOf)
	sc.Step(`^the JSON field "([^"]*)" should be less than (\d+(?:\.\d+)?(?:e-?\d+)?)$`,
		testCtx.theJSONFieldShouldBeLessThan)
	sc.Step(`^the JSON field "([^"]*)" should have (\d+) items?$`, testCtx.theJSONFieldShouldHaveItems)
	sc.Step(`^the JSON field "([^"]*)" should not be present$`, testCtx.theJSONFieldShouldNotBePresent)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, testCtx.theResponseHeaderShouldBe)
	sc.Step(`^the response body should contain "([^"]*)"$`, testCtx.theResponseBodyShouldContain)
}
