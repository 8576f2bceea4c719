package gfx

// ShaderCreateInfo is the backend-agnostic header of a serialized shader.
// The payload (bytecode or source) follows it unprefixed; the shader
// entry's size bounds it.
type ShaderCreateInfo struct {
	ShaderType     ShaderType
	EntryPoint     string
	SourceLanguage ShaderSourceLanguage
	Compiler       ShaderCompiler
}

// PipelineShader couples a shader header with its payload on the write
// side. Payload holds source text or compiled bytecode; backend patchers
// decide which and may replace it per backend.
type PipelineShader struct {
	CI      ShaderCreateInfo
	Payload []byte
}
