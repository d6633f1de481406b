package dto

type GenerateScriptRequest struct {
	CharacterName        string `json:"character_name" binding:"required"`
	CharacterDescription string `json:"character_description"`
	FlowPrompt           string `json:"flow_prompt" binding:"required"`
}

type GenerateScriptResponse struct {
	Script string `json:"script"`
}
