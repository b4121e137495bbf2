package browseruse

import (
	"fmt"
	"strings"
)

// rawContentCap bounds how much prior page text is embedded in the
// comparison instructions
const rawContentCap = 10000

const truncationMarker = "[Content truncated due to length]"

// buildInstructions produces the natural-language task for the browsing
// service. With a usable snapshot it asks for a comparison against the
// embedded prior state; without one it mandates an unconditioned baseline
// scan. Either way the service must reply with only a JSON object matching
// the fixed schema.
func buildInstructions(url, title string, snapshot *Snapshot) string {
	if snapshot == nil || snapshot.Summary == "" {
		return fmt.Sprintf(
			"You are monitoring the document titled '%s' at %s.\n"+
				"No previous snapshot exists, so treat this scan as the baseline record.\n"+
				"1. Visit the URL and examine the document thoroughly.\n"+
				"2. Produce a meticulous, highly detailed summary of the current version.\n"+
				"3. Because this is the baseline, set 'difference_detected' to false and 'severity' to 'No Change'. In 'difference_description', note that this is the initial snapshot and highlight any noteworthy observations.\n"+
				"4. For the 'changes' object, since this is the baseline, set all arrays (added, removed, modified) to empty arrays.\n"+
				"5. Respond strictly with a JSON object containing the keys: difference_detected (boolean), difference_description (string), severity (string), current_summary (string), changes (object with empty added/removed/modified arrays). Do not include natural language outside of the JSON object.",
			title, url)
	}

	description := snapshot.Description
	if description == "" {
		description = "None provided."
	}

	var context strings.Builder
	fmt.Fprintf(&context, "Previous snapshot details to compare against:\n- Summary:\n%s\n\n- Difference notes:\n%s\n\n", snapshot.Summary, description)

	if snapshot.RawContent != "" {
		preview := snapshot.RawContent
		truncated := false
		if len(preview) > rawContentCap {
			preview = preview[:rawContentCap]
			truncated = true
		}
		fmt.Fprintf(&context, "- Previous Raw Content (for detailed comparison):\n%s\n", preview)
		if truncated {
			context.WriteString(truncationMarker)
		}
	}

	return fmt.Sprintf(
		"You are monitoring the document titled '%s' at %s.\n"+
			"Follow these steps carefully:\n"+
			"1. Visit the URL and review the current document thoroughly.\n"+
			"2. Produce a meticulous, highly detailed summary of the current version.\n"+
			"3. Compare the current version with the previous snapshot details provided below and catalogue every difference, even subtle ones.\n"+
			"4. Determine whether any differences exist. If they do, set 'difference_detected' to true and choose an appropriate 'severity' from: No Change, Low, Major, Critical.\n"+
			"5. For the 'changes' object, categorize specific changes into:\n"+
			"   - 'added': New content, sections, links, images, or features that weren't present before\n"+
			"   - 'removed': Content, sections, links, images, or features that existed before but are now gone\n"+
			"   - 'modified': Existing content that has been altered, updated, or changed in some way\n"+
			"   Each category should be an array of descriptive strings. If no changes in a category, use an empty array.\n"+
			"6. Respond strictly with a JSON object containing the keys: difference_detected (boolean), difference_description (string), severity (string), current_summary (string), changes (object with added/removed/modified arrays). Do not include natural language outside of that JSON object.\n\n%s",
		title, url, context.String())
}
