package ai

// analysisPrompt asks the vision model for a strict JSON object so the
// response can be parsed without any free-text scraping. The bounds are
// restated in the prompt, but the caller still validates the result.
const analysisPrompt = `You are a nutritionist. Look at this photo of a meal and estimate its ` +
	`total calories and give a short description of what you see. Respond with ONLY a JSON ` +
	`object of the form {"calories": <integer between 1 and 5000>, "description": "<at most ` +
	`200 characters>"} and nothing else.`
