package main

// vertexShaderSrc unpacks voxmesh.PackedVertex's single-uint32-word layout:
// x:6/y:9/z:6/dir:3/u:4/v:4. Direction selects a fixed face normal for a
// cheap N·L shade since there is no texture atlas in this demo (spec.md
// scopes the atlas out as an external collaborator); u/v are left unread
// here since ambient occlusion and texturing aren't part of the demo shade.
const vertexShaderSrc = `#version 410 core
layout(location = 0) in uint a_word;

uniform mat4 u_viewProj;
uniform vec3 u_chunk_origin;

flat out int v_dir;

void main() {
	uint x = a_word & 0x3Fu;
	uint y = (a_word >> 6) & 0x1FFu;
	uint z = (a_word >> 15) & 0x3Fu;
	uint dir = (a_word >> 21) & 0x7u;

	vec3 worldPos = u_chunk_origin + vec3(float(x), float(y), float(z));
	gl_Position = u_viewProj * vec4(worldPos, 1.0);

	v_dir = int(dir);
}
` + "\x00"

const fragmentShaderSrc = `#version 410 core
flat in int v_dir;

uniform int u_light_count;

out vec4 fragColor;

const vec3 kNormals[6] = vec3[6](
	vec3(0.0, 0.0, 1.0),
	vec3(0.0, 0.0, -1.0),
	vec3(1.0, 0.0, 0.0),
	vec3(-1.0, 0.0, 0.0),
	vec3(0.0, 1.0, 0.0),
	vec3(0.0, -1.0, 0.0)
);

void main() {
	vec3 lightDir = normalize(vec3(0.4, 1.0, 0.3));
	float diffuse = max(dot(kNormals[v_dir], lightDir), 0.15);
	float ambient = u_light_count > 0 ? 0.1 : 0.0;
	vec3 base = vec3(0.55, 0.75, 0.45);
	fragColor = vec4(base * diffuse + ambient, 1.0);
}
` + "\x00"
