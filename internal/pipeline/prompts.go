package pipeline

import "fmt"

// ReportDelimiter separates the UI summary from the detailed report
const ReportDelimiter = "---DETAILED_REPORT_START---"

const visionPrompt = `Role: You are an expert image analyzer who can easily understand the contents of the image and can spot fake images easily.
Your task: Analyze this image carefully.
1. Describe what is happening in the image.
2. Check for impossible events, visual anomalies (warped text, distorted faces/hands, artifacts suggesting editing/AI generation).`

func extractionPrompt(text string) string {
	return "Extract the single, most verifiable claim from this text: " + text
}

func synthesisPrompt(claim, summary string) string {
	return fmt.Sprintf("Intelligence on claim '%s': %s.\n"+
		"Summarize findings for the Skeptic, focusing on the credibility of the sources and the visual consistency.", claim, summary)
}

func critiquePrompt(research string) string {
	return fmt.Sprintf("Review this research: '%s'. Is this sufficient? "+
		"If vague/contradictory, say 'REJECTED [Reason]'. If solid, say 'APPROVED'.", research)
}

func reportPrompt(research, claim string) string {
	return fmt.Sprintf(`Based on the following comprehensive research:
"%[1]s"

You are an expert Investigator. Generate a response with two distinct parts for claim: "%[2]s".

PART 1: THE UI SUMMARY (Keep concise)
Format exactly like this (ensure double newlines between sections):

**Image Description:** [Brief description if image was analyzed, otherwise "N/A"]

**Verdict:** [TRUE / FALSE / MISLEADING / UNVERIFIED]

**Claim Analyzed:** %[2]s

**Summary:** [2-3 sentences explaining the verdict]

PART 2: THE DETAILED REPORT (Professional and detailed)
Start this section with the delimiter: "%[3]s"
Include: **Investigation Report**, **Claim Analyzed**, **Evidence Breakdown**, **Visual Analysis**, **Final Conclusion**.`, research, claim, ReportDelimiter)
}
